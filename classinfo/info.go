// Package classinfo describes classes structurally for member resolution
// and defines the Provider through which they are looked up.
package classinfo

import (
	"github.com/wippyai/jar-remapper/classfile"
	"github.com/wippyai/jar-remapper/errors"
)

// FieldInfo is a declared field.
type FieldInfo struct {
	Name       string `yaml:"name" cbor:"name"`
	Descriptor string `yaml:"descriptor" cbor:"descriptor"`
	Access     uint16 `yaml:"access" cbor:"access"`
}

// MethodInfo is a declared method.
type MethodInfo struct {
	Name       string `yaml:"name" cbor:"name"`
	Descriptor string `yaml:"descriptor" cbor:"descriptor"`
	Access     uint16 `yaml:"access" cbor:"access"`
}

// Info is the structural view of a class. It is never modified after
// construction.
type Info struct {
	Name       string       `yaml:"name" cbor:"name"`
	Super      string       `yaml:"super,omitempty" cbor:"super,omitempty"`
	Interfaces []string     `yaml:"interfaces,omitempty" cbor:"interfaces,omitempty"`
	Fields     []FieldInfo  `yaml:"fields,omitempty" cbor:"fields,omitempty"`
	Methods    []MethodInfo `yaml:"methods,omitempty" cbor:"methods,omitempty"`
	Access     uint16       `yaml:"access" cbor:"access"`
}

// FromClassFile projects a parsed class.
func FromClassFile(cf *classfile.ClassFile) (*Info, error) {
	name, err := cf.Name()
	if err != nil {
		return nil, err
	}
	super, err := cf.SuperName()
	if err != nil {
		return nil, err
	}
	ifaces, err := cf.InterfaceNames()
	if err != nil {
		return nil, err
	}
	info := &Info{
		Access:     cf.Access,
		Name:       name,
		Super:      super,
		Interfaces: ifaces,
		Fields:     make([]FieldInfo, 0, len(cf.Fields)),
		Methods:    make([]MethodInfo, 0, len(cf.Methods)),
	}
	for _, f := range cf.Fields {
		n, d, err := f.NameAndDescriptor(cf.Pool)
		if err != nil {
			return nil, err
		}
		info.Fields = append(info.Fields, FieldInfo{Access: f.Access, Name: n, Descriptor: d})
	}
	for _, m := range cf.Methods {
		n, d, err := m.NameAndDescriptor(cf.Pool)
		if err != nil {
			return nil, err
		}
		info.Methods = append(info.Methods, MethodInfo{Access: m.Access, Name: n, Descriptor: d})
	}
	return info, nil
}

// Parse projects class bytes. name is used for error reporting only.
func Parse(name string, data []byte) (*Info, error) {
	cf, err := classfile.Parse(data)
	if err != nil {
		return nil, errors.ParseFailed(name, err)
	}
	info, err := FromClassFile(cf)
	if err != nil {
		return nil, errors.ParseFailed(name, err)
	}
	return info, nil
}

// Field finds a declared field by name.
func (i *Info) Field(name string) (FieldInfo, bool) {
	for _, f := range i.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldInfo{}, false
}

// Method finds a declared method by name and descriptor.
func (i *Info) Method(name, desc string) (MethodInfo, bool) {
	for _, m := range i.Methods {
		if m.Name == name && m.Descriptor == desc {
			return m, true
		}
	}
	return MethodInfo{}, false
}
