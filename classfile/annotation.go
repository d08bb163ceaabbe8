package classfile

import (
	"fmt"

	"github.com/wippyai/jar-remapper/classfile/internal/binary"
)

// Annotation is a decoded annotation. Type is a field descriptor.
type Annotation struct {
	Type     string
	Elements []ElementPair
}

// ElementPair is a named annotation element.
type ElementPair struct {
	Name  string
	Value ElementValue
}

// ElementValue is a tagged annotation element value.
//
//	B C D F I J S Z  Const (constant pool index of the primitive)
//	s                String
//	e                EnumType (descriptor) and EnumName
//	c                Class (return descriptor, e.g. "Lfoo/Bar;" or "V")
//	@                Annotation
//	[                Values
type ElementValue struct {
	Annotation *Annotation
	String     string
	EnumType   string
	EnumName   string
	Class      string
	Values     []ElementValue
	Const      uint16
	Tag        byte
}

// TypeAnnotation is an annotation on a type use. Target holds the
// target_type, target_info and type_path bytes verbatim.
type TypeAnnotation struct {
	Target     []byte
	Annotation Annotation
}

// AnnotationVisitor receives the elements of an annotation. Array and
// nested annotation visitors may be nil to skip the subtree. Elements of
// an array are visited with an empty name.
type AnnotationVisitor interface {
	Visit(name string, value ElementValue)
	VisitArray(name string) AnnotationVisitor
	VisitAnnotation(name, descriptor string) AnnotationVisitor
}

// Accept walks the annotation's elements.
func (a Annotation) Accept(v AnnotationVisitor) {
	for _, p := range a.Elements {
		acceptValue(v, p.Name, p.Value)
	}
}

func acceptValue(v AnnotationVisitor, name string, value ElementValue) {
	switch value.Tag {
	case '[':
		av := v.VisitArray(name)
		if av == nil {
			return
		}
		for _, e := range value.Values {
			acceptValue(av, "", e)
		}
	case '@':
		if value.Annotation == nil {
			return
		}
		nv := v.VisitAnnotation(name, value.Annotation.Type)
		if nv != nil {
			value.Annotation.Accept(nv)
		}
	default:
		v.Visit(name, value)
	}
}

// AcceptAnnotations walks the class-level annotations, visible and
// invisible. visit returns the visitor for each annotation, or nil to skip it.
func (cf *ClassFile) AcceptAnnotations(visit func(descriptor string, visible bool) AnnotationVisitor) error {
	for _, attr := range cf.Attributes {
		name, err := cf.Pool.Utf8(attr.Name)
		if err != nil {
			return err
		}
		var visible bool
		switch name {
		case AttrRuntimeVisibleAnnotations:
			visible = true
		case AttrRuntimeInvisibleAnnotations:
		default:
			continue
		}
		anns, err := DecodeAnnotations(cf.Pool, attr.Data)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		for _, a := range anns {
			if v := visit(a.Type, visible); v != nil {
				a.Accept(v)
			}
		}
	}
	return nil
}

// DecodeAnnotations decodes a Runtime(In)VisibleAnnotations payload.
func DecodeAnnotations(p Pool, data []byte) ([]Annotation, error) {
	r := binary.NewReader(data)
	anns, err := readAnnotations(r, p)
	if err != nil {
		return nil, r.WrapError("annotations", err)
	}
	return anns, r.ExpectEOF()
}

// DecodeParameterAnnotations decodes a Runtime(In)VisibleParameterAnnotations payload.
func DecodeParameterAnnotations(p Pool, data []byte) ([][]Annotation, error) {
	r := binary.NewReader(data)
	n, err := r.ReadU1()
	if err != nil {
		return nil, r.WrapError("parameter annotations", err)
	}
	out := make([][]Annotation, n)
	for i := range out {
		if out[i], err = readAnnotations(r, p); err != nil {
			return nil, r.WrapError("parameter annotations", err)
		}
	}
	return out, r.ExpectEOF()
}

// DecodeTypeAnnotations decodes a Runtime(In)VisibleTypeAnnotations payload.
func DecodeTypeAnnotations(p Pool, data []byte) ([]TypeAnnotation, error) {
	r := binary.NewReader(data)
	n, err := r.ReadU2()
	if err != nil {
		return nil, r.WrapError("type annotations", err)
	}
	out := make([]TypeAnnotation, n)
	for i := range out {
		start := r.Position()
		if err := skipTypeTarget(r); err != nil {
			return nil, r.WrapError("type annotation target", err)
		}
		out[i].Target = append([]byte(nil), data[start:r.Position()]...)
		if out[i].Annotation, err = readAnnotation(r, p); err != nil {
			return nil, r.WrapError("type annotations", err)
		}
	}
	return out, r.ExpectEOF()
}

// DecodeElementValue decodes an AnnotationDefault payload.
func DecodeElementValue(p Pool, data []byte) (ElementValue, error) {
	r := binary.NewReader(data)
	v, err := readElementValue(r, p)
	if err != nil {
		return ElementValue{}, r.WrapError("annotation default", err)
	}
	return v, r.ExpectEOF()
}

func skipTypeTarget(r *binary.Reader) error {
	targetType, err := r.ReadU1()
	if err != nil {
		return err
	}
	var size int
	switch targetType {
	case 0x00, 0x01, 0x16:
		size = 1
	case 0x10, 0x11, 0x12, 0x17, 0x42, 0x43, 0x44, 0x45, 0x46:
		size = 2
	case 0x13, 0x14, 0x15:
		size = 0
	case 0x47, 0x48, 0x49, 0x4A, 0x4B:
		size = 3
	case 0x40, 0x41:
		n, err := r.ReadU2()
		if err != nil {
			return err
		}
		size = int(n) * 6
	default:
		return fmt.Errorf("unknown type annotation target 0x%02x", targetType)
	}
	if _, err := r.ReadBytes(size); err != nil {
		return err
	}
	pathLen, err := r.ReadU1()
	if err != nil {
		return err
	}
	_, err = r.ReadBytes(int(pathLen) * 2)
	return err
}

func readAnnotations(r *binary.Reader, p Pool) ([]Annotation, error) {
	n, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	out := make([]Annotation, n)
	for i := range out {
		if out[i], err = readAnnotation(r, p); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readAnnotation(r *binary.Reader, p Pool) (Annotation, error) {
	typeIdx, err := r.ReadU2()
	if err != nil {
		return Annotation{}, err
	}
	a := Annotation{}
	if a.Type, err = p.Utf8(typeIdx); err != nil {
		return Annotation{}, err
	}
	n, err := r.ReadU2()
	if err != nil {
		return Annotation{}, err
	}
	a.Elements = make([]ElementPair, n)
	for i := range a.Elements {
		nameIdx, err := r.ReadU2()
		if err != nil {
			return Annotation{}, err
		}
		if a.Elements[i].Name, err = p.Utf8(nameIdx); err != nil {
			return Annotation{}, err
		}
		if a.Elements[i].Value, err = readElementValue(r, p); err != nil {
			return Annotation{}, err
		}
	}
	return a, nil
}

func readElementValue(r *binary.Reader, p Pool) (ElementValue, error) {
	tag, err := r.ReadU1()
	if err != nil {
		return ElementValue{}, err
	}
	v := ElementValue{Tag: tag}
	switch tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		if v.Const, err = r.ReadU2(); err != nil {
			return ElementValue{}, err
		}
		if _, err := p.Entry(v.Const); err != nil {
			return ElementValue{}, err
		}
	case 's':
		idx, err := r.ReadU2()
		if err != nil {
			return ElementValue{}, err
		}
		if v.String, err = p.Utf8(idx); err != nil {
			return ElementValue{}, err
		}
	case 'e':
		typeIdx, err := r.ReadU2()
		if err != nil {
			return ElementValue{}, err
		}
		nameIdx, err := r.ReadU2()
		if err != nil {
			return ElementValue{}, err
		}
		if v.EnumType, err = p.Utf8(typeIdx); err != nil {
			return ElementValue{}, err
		}
		if v.EnumName, err = p.Utf8(nameIdx); err != nil {
			return ElementValue{}, err
		}
	case 'c':
		idx, err := r.ReadU2()
		if err != nil {
			return ElementValue{}, err
		}
		if v.Class, err = p.Utf8(idx); err != nil {
			return ElementValue{}, err
		}
	case '@':
		a, err := readAnnotation(r, p)
		if err != nil {
			return ElementValue{}, err
		}
		v.Annotation = &a
	case '[':
		n, err := r.ReadU2()
		if err != nil {
			return ElementValue{}, err
		}
		v.Values = make([]ElementValue, n)
		for i := range v.Values {
			if v.Values[i], err = readElementValue(r, p); err != nil {
				return ElementValue{}, err
			}
		}
	default:
		return ElementValue{}, fmt.Errorf("unknown element value tag %q", tag)
	}
	return v, nil
}

// EncodeAnnotations encodes a Runtime(In)VisibleAnnotations payload,
// interning names into b.
func EncodeAnnotations(b *PoolBuilder, anns []Annotation) []byte {
	w := binary.NewWriter()
	writeAnnotations(w, b, anns)
	return w.Bytes()
}

// EncodeParameterAnnotations encodes a Runtime(In)VisibleParameterAnnotations payload.
func EncodeParameterAnnotations(b *PoolBuilder, params [][]Annotation) []byte {
	w := binary.NewWriter()
	w.Byte(byte(len(params)))
	for _, anns := range params {
		writeAnnotations(w, b, anns)
	}
	return w.Bytes()
}

// EncodeTypeAnnotations encodes a Runtime(In)VisibleTypeAnnotations payload.
func EncodeTypeAnnotations(b *PoolBuilder, anns []TypeAnnotation) []byte {
	w := binary.NewWriter()
	w.WriteU2(uint16(len(anns)))
	for _, ta := range anns {
		w.WriteBytes(ta.Target)
		writeAnnotation(w, b, ta.Annotation)
	}
	return w.Bytes()
}

// EncodeElementValue encodes an AnnotationDefault payload.
func EncodeElementValue(b *PoolBuilder, v ElementValue) []byte {
	w := binary.NewWriter()
	writeElementValue(w, b, v)
	return w.Bytes()
}

func writeAnnotations(w *binary.Writer, b *PoolBuilder, anns []Annotation) {
	w.WriteU2(uint16(len(anns)))
	for _, a := range anns {
		writeAnnotation(w, b, a)
	}
}

func writeAnnotation(w *binary.Writer, b *PoolBuilder, a Annotation) {
	w.WriteU2(b.Utf8(a.Type))
	w.WriteU2(uint16(len(a.Elements)))
	for _, p := range a.Elements {
		w.WriteU2(b.Utf8(p.Name))
		writeElementValue(w, b, p.Value)
	}
}

func writeElementValue(w *binary.Writer, b *PoolBuilder, v ElementValue) {
	w.Byte(v.Tag)
	switch v.Tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		w.WriteU2(v.Const)
	case 's':
		w.WriteU2(b.Utf8(v.String))
	case 'e':
		w.WriteU2(b.Utf8(v.EnumType))
		w.WriteU2(b.Utf8(v.EnumName))
	case 'c':
		w.WriteU2(b.Utf8(v.Class))
	case '@':
		writeAnnotation(w, b, *v.Annotation)
	case '[':
		w.WriteU2(uint16(len(v.Values)))
		for _, e := range v.Values {
			writeElementValue(w, b, e)
		}
	}
}
