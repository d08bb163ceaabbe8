// Package classtest builds small classfiles for tests.
package classtest

import (
	"encoding/binary"

	"github.com/wippyai/jar-remapper/classfile"
)

// Builder assembles a classfile. Methods panic on misuse; it is meant for
// fixtures only.
type Builder struct {
	pb      *classfile.PoolBuilder
	cf      *classfile.ClassFile
	visible []classfile.Annotation
	hidden  []classfile.Annotation
}

// Instr emits one instruction into a method body.
type Instr func(pb *classfile.PoolBuilder) []byte

// New starts a public class extending java/lang/Object.
func New(name string) *Builder {
	pb := classfile.NewPoolBuilder(nil)
	b := &Builder{
		pb: pb,
		cf: &classfile.ClassFile{
			Major:  61,
			Access: classfile.AccPublic | classfile.AccSuper,
		},
	}
	b.cf.ThisClass = pb.Class(name)
	b.cf.SuperClass = pb.Class("java/lang/Object")
	return b
}

// Access sets the class access flags.
func (b *Builder) Access(flags uint16) *Builder {
	b.cf.Access = flags
	return b
}

// Super sets the superclass.
func (b *Builder) Super(name string) *Builder {
	b.cf.SuperClass = b.pb.Class(name)
	return b
}

// Interfaces appends declared interfaces.
func (b *Builder) Interfaces(names ...string) *Builder {
	for _, n := range names {
		b.cf.Interfaces = append(b.cf.Interfaces, b.pb.Class(n))
	}
	return b
}

// Field declares a field.
func (b *Builder) Field(access uint16, name, desc string) *Builder {
	b.cf.Fields = append(b.cf.Fields, classfile.Member{
		Access:     access,
		Name:       b.pb.Utf8(name),
		Descriptor: b.pb.Utf8(desc),
	})
	return b
}

// Method declares a method. Without instructions the method is abstract.
func (b *Builder) Method(access uint16, name, desc string, body ...Instr) *Builder {
	m := classfile.Member{
		Access:     access,
		Name:       b.pb.Utf8(name),
		Descriptor: b.pb.Utf8(desc),
	}
	if len(body) == 0 {
		m.Access |= classfile.AccAbstract
	} else {
		var code []byte
		for _, in := range body {
			code = append(code, in(b.pb)...)
		}
		data := binary.BigEndian.AppendUint16(nil, 8) // max_stack
		data = binary.BigEndian.AppendUint16(data, 8) // max_locals
		data = binary.BigEndian.AppendUint32(data, uint32(len(code)))
		data = append(data, code...)
		data = binary.BigEndian.AppendUint16(data, 0) // exception table
		data = binary.BigEndian.AppendUint16(data, 0) // attributes
		m.Attributes = append(m.Attributes, classfile.Attribute{
			Name: b.pb.Utf8(classfile.AttrCode),
			Data: data,
		})
	}
	b.cf.Methods = append(b.cf.Methods, m)
	return b
}

// Annotation adds a class annotation. Invisible annotations model
// CLASS retention.
func (b *Builder) Annotation(visible bool, desc string, elems ...classfile.ElementPair) *Builder {
	a := classfile.Annotation{Type: desc, Elements: elems}
	if visible {
		b.visible = append(b.visible, a)
	} else {
		b.hidden = append(b.hidden, a)
	}
	return b
}

// Signature sets the class Signature attribute.
func (b *Builder) Signature(sig string) *Builder {
	b.cf.Attributes = append(b.cf.Attributes, classfile.Attribute{
		Name: b.pb.Utf8(classfile.AttrSignature),
		Data: binary.BigEndian.AppendUint16(nil, b.pb.Utf8(sig)),
	})
	return b
}

// Build returns the assembled class.
func (b *Builder) Build() *classfile.ClassFile {
	cf := *b.cf
	cf.Attributes = append([]classfile.Attribute(nil), b.cf.Attributes...)
	if len(b.visible) > 0 {
		cf.Attributes = append(cf.Attributes, classfile.Attribute{
			Name: b.pb.Utf8(classfile.AttrRuntimeVisibleAnnotations),
			Data: classfile.EncodeAnnotations(b.pb, b.visible),
		})
	}
	if len(b.hidden) > 0 {
		cf.Attributes = append(cf.Attributes, classfile.Attribute{
			Name: b.pb.Utf8(classfile.AttrRuntimeInvisibleAnnotations),
			Data: classfile.EncodeAnnotations(b.pb, b.hidden),
		})
	}
	cf.Pool = b.pb.Pool()
	return &cf
}

// Bytes returns the encoded class.
func (b *Builder) Bytes() []byte {
	data, err := b.Build().Encode()
	if err != nil {
		panic(err)
	}
	return data
}

// Element builds a named annotation element.
func Element(name string, v classfile.ElementValue) classfile.ElementPair {
	return classfile.ElementPair{Name: name, Value: v}
}

// ClassValue is a class literal element for an internal name.
func ClassValue(internalName string) classfile.ElementValue {
	return classfile.ElementValue{Tag: 'c', Class: classfile.Descriptor(internalName)}
}

// StringValue is a string element.
func StringValue(s string) classfile.ElementValue {
	return classfile.ElementValue{Tag: 's', String: s}
}

// ArrayValue is an array element.
func ArrayValue(values ...classfile.ElementValue) classfile.ElementValue {
	return classfile.ElementValue{Tag: '[', Values: values}
}

// AnnotationValue is a nested annotation element.
func AnnotationValue(desc string, elems ...classfile.ElementPair) classfile.ElementValue {
	return classfile.ElementValue{Tag: '@', Annotation: &classfile.Annotation{Type: desc, Elements: elems}}
}

func op(opcode byte, idx uint16) []byte {
	return binary.BigEndian.AppendUint16([]byte{opcode}, idx)
}

// GetField emits getfield.
func GetField(owner, name, desc string) Instr {
	return func(pb *classfile.PoolBuilder) []byte {
		return op(0xB4, pb.Fieldref(owner, name, desc))
	}
}

// PutField emits putfield.
func PutField(owner, name, desc string) Instr {
	return func(pb *classfile.PoolBuilder) []byte {
		return op(0xB5, pb.Fieldref(owner, name, desc))
	}
}

// InvokeVirtual emits invokevirtual.
func InvokeVirtual(owner, name, desc string) Instr {
	return func(pb *classfile.PoolBuilder) []byte {
		return op(0xB6, pb.Methodref(owner, name, desc))
	}
}

// InvokeStatic emits invokestatic.
func InvokeStatic(owner, name, desc string) Instr {
	return func(pb *classfile.PoolBuilder) []byte {
		return op(0xB8, pb.Methodref(owner, name, desc))
	}
}

// NewInstance emits new.
func NewInstance(class string) Instr {
	return func(pb *classfile.PoolBuilder) []byte {
		return op(0xBB, pb.Class(class))
	}
}

// Ldc emits ldc_w for a string constant.
func Ldc(s string) Instr {
	return func(pb *classfile.PoolBuilder) []byte {
		return op(0x13, pb.String(s))
	}
}

// ALoad0 emits aload_0.
func ALoad0() Instr {
	return func(*classfile.PoolBuilder) []byte { return []byte{0x2A} }
}

// Pop emits pop.
func Pop() Instr {
	return func(*classfile.PoolBuilder) []byte { return []byte{0x57} }
}

// Return emits return.
func Return() Instr {
	return func(*classfile.PoolBuilder) []byte { return []byte{0xB1} }
}
