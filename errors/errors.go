package errors

import (
	"fmt"
	"strings"
)

// Phase is the stage of processing that failed.
type Phase string

const (
	PhaseParse    Phase = "parse"    // classfile to model
	PhaseEncode   Phase = "encode"   // model to classfile
	PhaseRemap    Phase = "remap"    // name resolution
	PhaseRelocate Phase = "relocate" // resource content relocation
	PhaseLoad     Phase = "load"     // mapping and classpath loading
	PhaseArchive  Phase = "archive"  // jar reading and writing
	PhaseConfig   Phase = "config"   // run configuration
)

// Kind is what went wrong.
type Kind string

const (
	KindInvalidData  Kind = "invalid_data"
	KindInvalidUTF8  Kind = "invalid_utf8"
	KindOutOfBounds  Kind = "out_of_bounds"
	KindOverflow     Kind = "overflow"
	KindUnsupported  Kind = "unsupported"
	KindNotFound     Kind = "not_found"
	KindCycle        Kind = "cycle"
	KindDuplicate    Kind = "duplicate"
	KindInvalidInput Kind = "invalid_input"
)

// Error is a located failure. Path is an entry or attribute path, or for
// KindCycle the chain of keys that closed the cycle.
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Class  string
	Member string
	Detail string
	Path   []string
}

// Error renders "[phase] kind at path: class C, member M - detail (caused by: ...)".
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Phase, e.Kind)

	if len(e.Path) > 0 {
		sep := "/"
		if e.Kind == KindCycle {
			sep = " -> "
		}
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, sep))
	}

	sep := ": "
	if e.Class != "" {
		b.WriteString(": class ")
		b.WriteString(e.Class)
		if e.Member != "" {
			b.WriteString(", member ")
			b.WriteString(e.Member)
		}
		sep = " - "
	}
	if e.Detail != "" {
		b.WriteString(sep)
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, " (caused by: %v)", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error with the same phase and kind, so callers can
// test against a template such as &Error{Phase: PhaseRemap, Kind: KindCycle}.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder assembles an Error field by field.
type Builder struct {
	err Error
}

// New starts an error of the given phase and kind.
func New(phase Phase, kind Kind) *Builder {
	return &Builder{err: Error{Phase: phase, Kind: kind}}
}

func (b *Builder) Path(path ...string) *Builder { b.err.Path = path; return b }
func (b *Builder) Class(name string) *Builder   { b.err.Class = name; return b }
func (b *Builder) Member(name string) *Builder  { b.err.Member = name; return b }
func (b *Builder) Value(v any) *Builder         { b.err.Value = v; return b }
func (b *Builder) Cause(err error) *Builder     { b.err.Cause = err; return b }

// Detail sets the message, formatting it when args are given.
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	b.err.Detail = msg
	return b
}

// Build returns the error. The builder must not be reused.
func (b *Builder) Build() *Error { return &b.err }

func InvalidData(phase Phase, path []string, detail string) *Error {
	return New(phase, KindInvalidData).Path(path...).Detail(detail).Build()
}

// InvalidUTF8 reports text that failed to decode, previewing at most 32
// bytes of it.
func InvalidUTF8(phase Phase, path []string, data []byte) *Error {
	return New(phase, KindInvalidUTF8).
		Path(path...).
		Detail("invalid UTF-8 sequence: %x", data[:min(len(data), 32)]).
		Build()
}

func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return New(phase, KindOutOfBounds).
		Path(path...).
		Value(index).
		Detail("index %d out of bounds (length %d)", index, length).
		Build()
}

func Overflow(phase Phase, path []string, value any, limit string) *Error {
	return New(phase, KindOverflow).
		Path(path...).
		Value(value).
		Detail("value %v overflows %s", value, limit).
		Build()
}

func Unsupported(phase Phase, what string) *Error {
	return New(phase, KindUnsupported).Detail(what).Build()
}

func NotFound(phase Phase, what, name string) *Error {
	return New(phase, KindNotFound).Value(name).Detail("%s %q not found", what, name).Build()
}

// Cycle reports a lookup that re-entered a key still being computed.
// chain starts and ends with that key.
func Cycle(phase Phase, chain []string) *Error {
	return New(phase, KindCycle).
		Path(chain...).
		Detail("lookup re-entered a key that is still being computed").
		Build()
}

// Duplicate reports a name produced twice.
func Duplicate(phase Phase, what, name string) *Error {
	return New(phase, KindDuplicate).Value(name).Detail("duplicate %s %q", what, name).Build()
}

func InvalidInput(phase Phase, detail string) *Error {
	return New(phase, KindInvalidInput).Detail(detail).Build()
}

// Wrap adds phase and kind to an error from outside this package.
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return New(phase, kind).Cause(cause).Detail(detail).Build()
}

// ParseFailed reports a class whose bytes could not be decoded.
func ParseFailed(class string, cause error) *Error {
	return New(PhaseParse, KindInvalidData).Class(class).Cause(cause).Detail("parse classfile").Build()
}

// Load reports a mapping or class path input that could not be read.
func Load(detail string, cause error) *Error {
	return New(PhaseLoad, KindInvalidData).Cause(cause).Detail(detail).Build()
}
