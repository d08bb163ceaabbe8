package remap

import (
	"context"

	"github.com/wippyai/jar-remapper/classfile"
	"github.com/wippyai/jar-remapper/classinfo"
	"github.com/wippyai/jar-remapper/mapping"
)

// Base maps names through a mapping table. Members are resolved to the
// class that declares them before the table is consulted, so inherited
// members pick up the declaring class's mapping.
type Base struct {
	classes classinfo.Provider
	table   *mapping.Table
}

var _ classfile.Remapper = (*Base)(nil)

// NewBase returns a remapper over table. classes supplies the hierarchy;
// it is asked for names in the table's source namespace.
func NewBase(classes classinfo.Provider, table *mapping.Table) *Base {
	return &Base{classes: classes, table: table}
}

// Table returns the mapping table.
func (b *Base) Table() *mapping.Table {
	return b.table
}

// Map maps an internal class name.
func (b *Base) Map(name string) string {
	return b.table.RemapClass(name)
}

// MapFieldName maps a field referenced through owner.
func (b *Base) MapFieldName(ctx context.Context, owner, name, desc string) (string, error) {
	mapped, found, err := b.resolveField(ctx, owner, name, make(map[string]struct{}), true)
	if err != nil || !found {
		return name, err
	}
	return mapped, nil
}

// MapMethodName maps a method referenced through owner. Constructors and
// static initializers are never renamed.
func (b *Base) MapMethodName(ctx context.Context, owner, name, desc string) (string, error) {
	if name == classfile.ConstructorName || name == classfile.StaticInitializerName {
		return name, nil
	}
	mapped, found, err := b.resolveMethod(ctx, owner, name, desc, make(map[string]struct{}), true)
	if err != nil || !found {
		return name, err
	}
	return mapped, nil
}

// MapPackageName maps a slash-separated package name.
func (b *Base) MapPackageName(name string) string {
	return b.table.RemapPackage(name)
}

// MapValue returns value unchanged.
func (b *Base) MapValue(value string) string {
	return value
}

// resolveField finds the declaring class of a field and returns its
// mapped name. found is false when no class in the hierarchy is known
// to declare it.
func (b *Base) resolveField(ctx context.Context, owner, name string, seen map[string]struct{}, direct bool) (string, bool, error) {
	if _, ok := seen[owner]; ok {
		return "", false, nil
	}
	seen[owner] = struct{}{}

	if c, ok := b.table.Class(owner); ok {
		if mapped, ok := c.Field(name); ok {
			return mapped, true, nil
		}
	}

	ci, ok, err := b.classes.ClassInfo(ctx, owner)
	if err != nil || !ok {
		return "", false, err
	}
	if f, ok := ci.Field(name); ok && (direct || f.Access&classfile.AccPrivate == 0) {
		return name, true, nil
	}
	for _, parent := range parents(ci) {
		mapped, found, err := b.resolveField(ctx, parent, name, seen, false)
		if err != nil || found {
			return mapped, found, err
		}
	}
	return "", false, nil
}

func (b *Base) resolveMethod(ctx context.Context, owner, name, desc string, seen map[string]struct{}, direct bool) (string, bool, error) {
	if _, ok := seen[owner]; ok {
		return "", false, nil
	}
	seen[owner] = struct{}{}

	if c, ok := b.table.Class(owner); ok {
		if mapped, ok := c.Method(name, desc); ok {
			return mapped, true, nil
		}
	}

	ci, ok, err := b.classes.ClassInfo(ctx, owner)
	if err != nil || !ok {
		return "", false, err
	}
	if m, ok := ci.Method(name, desc); ok && (direct || m.Access&(classfile.AccPrivate|classfile.AccStatic) == 0) {
		return name, true, nil
	}
	for _, parent := range parents(ci) {
		mapped, found, err := b.resolveMethod(ctx, parent, name, desc, seen, false)
		if err != nil || found {
			return mapped, found, err
		}
	}
	return "", false, nil
}

// parents lists the superclass followed by the interfaces, mixin targets
// included.
func parents(ci classinfo.ClassInfo) []string {
	ifaces := ci.Interfaces()
	out := make([]string, 0, len(ifaces)+1)
	if s := ci.Super(); s != "" {
		out = append(out, s)
	}
	return append(out, ifaces...)
}
