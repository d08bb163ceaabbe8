// Package errors defines the structured error used across the remapper.
// Every error carries the processing phase it came from and a kind, and
// optionally the class, member and entry path involved.
//
// Build one field by field:
//
//	err := errors.New(errors.PhaseParse, errors.KindInvalidData).
//		Class("net/example/Foo").
//		Detail("constant pool index %d out of range", idx).
//		Build()
//
// or with a constructor for the common shapes:
//
//	err := errors.ParseFailed("net/example/Foo", cause)
//	err := errors.OutOfBounds(errors.PhaseParse, path, 10, 5)
//
// Is matches on phase and kind, so a bare template works as a target:
//
//	errors.Is(err, &errors.Error{Phase: errors.PhaseRemap, Kind: errors.KindCycle})
//
// Is, As and Join forward to the standard library for packages that import
// this one under the name errors.
package errors
