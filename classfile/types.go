package classfile

// ClassFile is a parsed classfile. Names and descriptors are held as
// constant pool indices; use the Pool accessors to resolve them.
type ClassFile struct {
	Pool       Pool
	Interfaces []uint16
	Fields     []Member
	Methods    []Member
	Attributes []Attribute
	Minor      uint16
	Major      uint16
	Access     uint16
	ThisClass  uint16
	SuperClass uint16
}

// Member is a field or method declaration.
type Member struct {
	Attributes []Attribute
	Access     uint16
	Name       uint16
	Descriptor uint16
}

// Attribute is an undecoded attribute. Data excludes the name and length header.
type Attribute struct {
	Data []byte
	Name uint16
}

// Constant is a constant pool entry.
//
// A and B carry the index operands of the entry:
//
//	Class, String, MethodType, Module, Package: A = Utf8 index
//	Fieldref, Methodref, InterfaceMethodref:    A = Class, B = NameAndType
//	NameAndType:                                A = name, B = descriptor
//	MethodHandle:                               A = reference, RefKind = kind
//	Dynamic, InvokeDynamic:                     A = bootstrap method, B = NameAndType
//
// Integer, Float, Long and Double keep their big-endian payload in Raw.
// The slot following a Long or Double has Tag 0.
type Constant struct {
	Utf8    string
	Raw     []byte
	A       uint16
	B       uint16
	Tag     byte
	RefKind byte
}

// Name returns the internal name of the class.
func (cf *ClassFile) Name() (string, error) {
	return cf.Pool.ClassName(cf.ThisClass)
}

// SuperName returns the internal name of the superclass, or "" for
// java/lang/Object and module-info.
func (cf *ClassFile) SuperName() (string, error) {
	if cf.SuperClass == 0 {
		return "", nil
	}
	return cf.Pool.ClassName(cf.SuperClass)
}

// InterfaceNames returns the internal names of the declared interfaces.
func (cf *ClassFile) InterfaceNames() ([]string, error) {
	names := make([]string, 0, len(cf.Interfaces))
	for _, idx := range cf.Interfaces {
		name, err := cf.Pool.ClassName(idx)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// NameAndDescriptor resolves a member's name and descriptor.
func (m Member) NameAndDescriptor(p Pool) (name, desc string, err error) {
	if name, err = p.Utf8(m.Name); err != nil {
		return "", "", err
	}
	if desc, err = p.Utf8(m.Descriptor); err != nil {
		return "", "", err
	}
	return name, desc, nil
}

// FindAttribute returns the first attribute with the given name.
func FindAttribute(p Pool, attrs []Attribute, name string) (Attribute, bool) {
	for _, a := range attrs {
		if n, err := p.Utf8(a.Name); err == nil && n == name {
			return a, true
		}
	}
	return Attribute{}, false
}
