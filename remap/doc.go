// Package remap implements the classfile.Remapper policies used when
// rewriting classes.
//
// Base resolves class, field and method names through a mapping.Table,
// walking the class hierarchy through a classinfo.Provider to find the
// class that declares a member. Relocating layers a flat substitution
// table, mixin target resolution and package relocation on top of Base.
package remap
