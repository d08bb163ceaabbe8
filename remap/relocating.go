package remap

import (
	"context"

	"github.com/wippyai/jar-remapper/classfile"
	"github.com/wippyai/jar-remapper/classinfo"
	"github.com/wippyai/jar-remapper/mapping"
	"github.com/wippyai/jar-remapper/relocate"
)

// Relocating is the remapper applied to transformed classes.
//
// The flat table wins for any key it holds. Class names the mapping
// leaves alone are relocated. Fields of a mixin are resolved against its
// targets first. String constants are relocated and then looked up in
// the flat table. Packages are not renamed.
type Relocating struct {
	base    *Base
	classes classinfo.Provider
	flat    mapping.Flat
	rules   relocate.Table
}

var _ classfile.Remapper = (*Relocating)(nil)

// NewRelocating layers flat and rules over base. classes must be the
// provider base resolves through; it reports mixins.
func NewRelocating(base *Base, classes classinfo.Provider, flat mapping.Flat, rules relocate.Table) *Relocating {
	return &Relocating{base: base, classes: classes, flat: flat, rules: rules}
}

// Map maps an internal class name.
func (r *Relocating) Map(name string) string {
	if v, ok := r.flat.Lookup(name); ok {
		return v
	}
	if mapped := r.base.Map(name); mapped != name {
		return mapped
	}
	return r.rules.Name(name)
}

// MapFieldName maps a field referenced through owner.
func (r *Relocating) MapFieldName(ctx context.Context, owner, name, desc string) (string, error) {
	if v, ok := r.flat.Lookup(name); ok {
		return v, nil
	}
	ci, ok, err := r.classes.ClassInfo(ctx, owner)
	if err != nil {
		return name, err
	}
	if ok && ci.IsMixin() {
		for _, target := range ci.Targets() {
			mapped, err := r.base.MapFieldName(ctx, target, name, desc)
			if err != nil {
				return name, err
			}
			if mapped != name {
				return mapped, nil
			}
		}
	}
	return r.base.MapFieldName(ctx, owner, name, desc)
}

// MapMethodName maps a method referenced through owner.
func (r *Relocating) MapMethodName(ctx context.Context, owner, name, desc string) (string, error) {
	if v, ok := r.flat.Lookup(name); ok {
		return v, nil
	}
	return r.base.MapMethodName(ctx, owner, name, desc)
}

// MapPackageName returns name unchanged.
func (r *Relocating) MapPackageName(name string) string {
	return name
}

// MapValue maps a string constant that may name a class reflectively.
func (r *Relocating) MapValue(value string) string {
	if v := r.rules.Value(value); v != value {
		return v
	}
	if v, ok := r.flat.Lookup(value); ok {
		return v
	}
	return r.base.MapValue(value)
}
