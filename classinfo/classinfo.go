package classinfo

import (
	"slices"
)

// Kind tags a ClassInfo.
type Kind uint8

const (
	KindPlain Kind = iota
	KindMixin
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindMixin:
		return "mixin"
	}
	return "unknown"
}

// ClassInfo is a class as seen by member resolution. A mixin carries
// the classes it is applied to; those act as extra parents after the
// declared interfaces. Declared members are never hidden.
type ClassInfo struct {
	info    *Info
	targets []string
	kind    Kind
}

// Plain wraps info without augmentation.
func Plain(info *Info) ClassInfo {
	return ClassInfo{info: info, kind: KindPlain}
}

// Mixin wraps info with computed targets. Targets are sorted and
// deduplicated. No targets yields a plain class.
func Mixin(info *Info, targets []string) ClassInfo {
	if len(targets) == 0 {
		return Plain(info)
	}
	t := slices.Clone(targets)
	slices.Sort(t)
	return ClassInfo{info: info, kind: KindMixin, targets: slices.Compact(t)}
}

// Kind returns the variant.
func (c ClassInfo) Kind() Kind { return c.kind }

// IsMixin reports whether the class has computed targets.
func (c ClassInfo) IsMixin() bool { return c.kind == KindMixin }

// Info returns the underlying structural view.
func (c ClassInfo) Info() *Info { return c.info }

// Targets returns the computed mixin targets.
func (c ClassInfo) Targets() []string { return slices.Clone(c.targets) }

// Name returns the internal class name.
func (c ClassInfo) Name() string { return c.info.Name }

// Access returns the class access flags.
func (c ClassInfo) Access() uint16 { return c.info.Access }

// Super returns the superclass, empty for java/lang/Object and modules.
func (c ClassInfo) Super() string { return c.info.Super }

// DeclaredInterfaces returns the interfaces named in the classfile.
func (c ClassInfo) DeclaredInterfaces() []string { return slices.Clone(c.info.Interfaces) }

// Interfaces returns the declared interfaces followed by mixin targets.
func (c ClassInfo) Interfaces() []string {
	out := make([]string, 0, len(c.info.Interfaces)+len(c.targets))
	out = append(out, c.info.Interfaces...)
	return append(out, c.targets...)
}

// Fields returns the declared fields.
func (c ClassInfo) Fields() []FieldInfo { return c.info.Fields }

// Methods returns the declared methods.
func (c ClassInfo) Methods() []MethodInfo { return c.info.Methods }

// Field finds a declared field.
func (c ClassInfo) Field(name string) (FieldInfo, bool) { return c.info.Field(name) }

// Method finds a declared method.
func (c ClassInfo) Method(name, desc string) (MethodInfo, bool) { return c.info.Method(name, desc) }
