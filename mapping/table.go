package mapping

import (
	"strings"

	"github.com/wippyai/jar-remapper/classfile"
)

type methodKey struct {
	name string
	desc string
}

// Class is the mapping of one class and its members.
type Class struct {
	Original string
	Mapped   string
	fields   map[string]string
	methods  map[methodKey]string
}

// AddField maps a field. Field mappings ignore the descriptor.
func (c *Class) AddField(original, mapped string) {
	c.fields[original] = mapped
}

// AddMethod maps a method by name and descriptor. The descriptor uses
// original class names.
func (c *Class) AddMethod(original, desc, mapped string) {
	c.methods[methodKey{original, desc}] = mapped
}

// Field returns the mapped name of a field declared by this class.
func (c *Class) Field(name string) (string, bool) {
	m, ok := c.fields[name]
	return m, ok
}

// Method returns the mapped name of a method declared by this class.
func (c *Class) Method(name, desc string) (string, bool) {
	m, ok := c.methods[methodKey{name, desc}]
	return m, ok
}

// FieldCount returns the number of mapped fields.
func (c *Class) FieldCount() int { return len(c.fields) }

// MethodCount returns the number of mapped methods.
func (c *Class) MethodCount() int { return len(c.methods) }

// Table is an owner-aware mapping from original to mapped names.
type Table struct {
	classes  map[string]*Class
	packages map[string]string
}

// New returns an empty table.
func New() *Table {
	return &Table{
		classes:  make(map[string]*Class),
		packages: make(map[string]string),
	}
}

// AddClass maps a class and returns its entry for adding members. Adding
// a class twice keeps its members and updates the mapped name.
func (t *Table) AddClass(original, mapped string) *Class {
	if c, ok := t.classes[original]; ok {
		c.Mapped = mapped
		return c
	}
	c := &Class{
		Original: original,
		Mapped:   mapped,
		fields:   make(map[string]string),
		methods:  make(map[methodKey]string),
	}
	t.classes[original] = c
	return c
}

// AddPackage maps a package. Names are slash-separated without the
// trailing '/'.
func (t *Table) AddPackage(original, mapped string) {
	t.packages[original] = mapped
}

// Class returns the entry for an original class name.
func (t *Table) Class(name string) (*Class, bool) {
	if t == nil {
		return nil, false
	}
	c, ok := t.classes[name]
	return c, ok
}

// Len returns the number of mapped classes.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.classes)
}

// RemapClass maps an internal class name. Unmapped inner classes keep
// their simple name under the mapped outer class.
func (t *Table) RemapClass(name string) string {
	if t == nil {
		return name
	}
	if c, ok := t.classes[name]; ok {
		return c.Mapped
	}
	if i := strings.LastIndexByte(name, '$'); i > 0 {
		outer := t.RemapClass(name[:i])
		if outer != name[:i] {
			return outer + name[i:]
		}
	}
	return name
}

// Map implements classfile.ClassMapper.
func (t *Table) Map(name string) string {
	return t.RemapClass(name)
}

// RemapField maps a field declared by owner. Unmapped fields keep
// their name.
func (t *Table) RemapField(owner, name string) string {
	if c, ok := t.Class(owner); ok {
		if m, ok := c.Field(name); ok {
			return m
		}
	}
	return name
}

// RemapMethod maps a method declared by owner. Unmapped methods keep
// their name.
func (t *Table) RemapMethod(owner, name, desc string) string {
	if c, ok := t.Class(owner); ok {
		if m, ok := c.Method(name, desc); ok {
			return m
		}
	}
	return name
}

// RemapDescriptor maps every class named in a descriptor.
func (t *Table) RemapDescriptor(desc string) string {
	return classfile.RemapDescriptor(t, desc)
}

// RemapPackage maps a package name.
func (t *Table) RemapPackage(name string) string {
	if t == nil {
		return name
	}
	if m, ok := t.packages[name]; ok {
		return m
	}
	return name
}

// Reverse returns a table mapping the other way. Method descriptors are
// rewritten into mapped names so that lookups with mapped descriptors hit.
func (t *Table) Reverse() *Table {
	out := New()
	if t == nil {
		return out
	}
	for _, c := range t.classes {
		rc := out.AddClass(c.Mapped, c.Original)
		for orig, mapped := range c.fields {
			rc.AddField(mapped, orig)
		}
		for k, mapped := range c.methods {
			rc.AddMethod(mapped, t.RemapDescriptor(k.desc), k.name)
		}
	}
	for orig, mapped := range t.packages {
		out.AddPackage(mapped, orig)
	}
	return out
}
