package classfile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wippyai/jar-remapper/classfile/internal/binary"
	rerrors "github.com/wippyai/jar-remapper/errors"
)

// Remapper is the renaming policy Remap applies. Owner arguments are the
// internal names as they appear in the input class.
type Remapper interface {
	ClassMapper
	MapFieldName(ctx context.Context, owner, name, descriptor string) (string, error)
	MapMethodName(ctx context.Context, owner, name, descriptor string) (string, error)
	MapPackageName(name string) string
	MapValue(value string) string
}

// Options control Remap.
type Options struct {
	// SkipCode drops Code attributes. Used for structural inspection.
	SkipCode bool
}

// Remap returns a copy of cf with every class, field, method and string
// constant passed through r. The input is not modified.
//
// The constant pool is extended rather than rebuilt: entries referenced
// from bytecode keep their indices and are repointed at new Utf8 and
// NameAndType entries.
func Remap(ctx context.Context, cf *ClassFile, r Remapper, opts Options) (*ClassFile, error) {
	owner, err := cf.Name()
	if err != nil {
		return nil, err
	}
	rw := &rewriter{
		ctx:   ctx,
		r:     r,
		orig:  cf.Pool,
		pb:    NewPoolBuilder(cf.Pool),
		owner: owner,
		opts:  opts,
	}

	if err := rw.remapPool(); err != nil {
		return nil, rw.wrap(err)
	}

	out := &ClassFile{
		Minor:      cf.Minor,
		Major:      cf.Major,
		Access:     cf.Access,
		ThisClass:  cf.ThisClass,
		SuperClass: cf.SuperClass,
		Interfaces: append([]uint16(nil), cf.Interfaces...),
	}
	if out.Fields, err = rw.remapMembers(cf.Fields, false); err != nil {
		return nil, rw.wrap(err)
	}
	if out.Methods, err = rw.remapMembers(cf.Methods, true); err != nil {
		return nil, rw.wrap(err)
	}
	if out.Attributes, err = rw.remapAttributes(cf.Attributes); err != nil {
		return nil, rw.wrap(err)
	}
	if err := rw.pb.Err(); err != nil {
		return nil, rw.wrap(err)
	}
	out.Pool = rw.pb.Pool()
	return out, nil
}

type rewriter struct {
	ctx   context.Context
	r     Remapper
	orig  Pool
	pb    *PoolBuilder
	owner string
	opts  Options
}

func (rw *rewriter) wrap(err error) error {
	var re *rerrors.Error
	if errors.As(err, &re) {
		return err
	}
	return rerrors.New(rerrors.PhaseRemap, rerrors.KindInvalidData).
		Class(rw.owner).
		Cause(err).
		Build()
}

func (rw *rewriter) remapPool() error {
	for i := 1; i < len(rw.orig); i++ {
		idx := uint16(i)
		c := rw.orig[i]
		switch c.Tag {
		case TagClass:
			name, err := rw.orig.Utf8(c.A)
			if err != nil {
				return err
			}
			if mapped := RemapType(rw.r, name); mapped != name {
				c.A = rw.pb.Utf8(mapped)
				rw.pb.Set(idx, c)
			}
		case TagString:
			s, err := rw.orig.Utf8(c.A)
			if err != nil {
				return err
			}
			if mapped := rw.r.MapValue(s); mapped != s {
				c.A = rw.pb.Utf8(mapped)
				rw.pb.Set(idx, c)
			}
		case TagFieldref, TagMethodref, TagInterfaceMethodref:
			owner, name, desc, err := rw.orig.MemberRef(idx)
			if err != nil {
				return err
			}
			var newName, newDesc string
			switch {
			case c.Tag == TagFieldref:
				newName, err = rw.r.MapFieldName(rw.ctx, owner, name, desc)
			case strings.HasPrefix(owner, "["), name == ConstructorName, name == StaticInitializerName:
				newName = name
			default:
				newName, err = rw.r.MapMethodName(rw.ctx, owner, name, desc)
			}
			if err != nil {
				return err
			}
			newDesc = RemapDescriptor(rw.r, desc)
			if newName != name || newDesc != desc {
				c.B = rw.pb.NameAndType(newName, newDesc)
				rw.pb.Set(idx, c)
			}
		case TagMethodType:
			desc, err := rw.orig.Utf8(c.A)
			if err != nil {
				return err
			}
			if mapped := RemapDescriptor(rw.r, desc); mapped != desc {
				c.A = rw.pb.Utf8(mapped)
				rw.pb.Set(idx, c)
			}
		case TagDynamic, TagInvokeDynamic:
			name, desc, err := rw.orig.NameAndType(c.B)
			if err != nil {
				return err
			}
			if mapped := RemapDescriptor(rw.r, desc); mapped != desc {
				c.B = rw.pb.NameAndType(name, mapped)
				rw.pb.Set(idx, c)
			}
		case TagPackage:
			name, err := rw.orig.Utf8(c.A)
			if err != nil {
				return err
			}
			if mapped := rw.r.MapPackageName(name); mapped != name {
				c.A = rw.pb.Utf8(mapped)
				rw.pb.Set(idx, c)
			}
		}
	}
	return nil
}

func (rw *rewriter) remapMembers(members []Member, methods bool) ([]Member, error) {
	out := make([]Member, 0, len(members))
	for _, m := range members {
		name, desc, err := m.NameAndDescriptor(rw.orig)
		if err != nil {
			return nil, err
		}
		newName := name
		switch {
		case !methods:
			newName, err = rw.r.MapFieldName(rw.ctx, rw.owner, name, desc)
		case name != ConstructorName && name != StaticInitializerName:
			newName, err = rw.r.MapMethodName(rw.ctx, rw.owner, name, desc)
		}
		if err != nil {
			return nil, err
		}
		attrs, err := rw.remapAttributes(m.Attributes)
		if err != nil {
			return nil, fmt.Errorf("%s%s: %w", name, desc, err)
		}
		out = append(out, Member{
			Access:     m.Access,
			Name:       rw.pb.Utf8(newName),
			Descriptor: rw.pb.Utf8(RemapDescriptor(rw.r, desc)),
			Attributes: attrs,
		})
	}
	return out, nil
}

func (rw *rewriter) remapAttributes(attrs []Attribute) ([]Attribute, error) {
	out := make([]Attribute, 0, len(attrs))
	for _, a := range attrs {
		name, err := rw.orig.Utf8(a.Name)
		if err != nil {
			return nil, err
		}
		if name == AttrCode && rw.opts.SkipCode {
			continue
		}
		data, err := rw.remapAttribute(name, a.Data)
		if err != nil {
			return nil, fmt.Errorf("%s attribute: %w", name, err)
		}
		out = append(out, Attribute{Name: a.Name, Data: data})
	}
	return out, nil
}

func (rw *rewriter) remapAttribute(name string, data []byte) ([]byte, error) {
	switch name {
	case AttrSignature:
		return rw.remapSignatureAttr(data)
	case AttrRuntimeVisibleAnnotations, AttrRuntimeInvisibleAnnotations:
		anns, err := DecodeAnnotations(rw.orig, data)
		if err != nil {
			return nil, err
		}
		for i := range anns {
			anns[i] = rw.remapAnnotation(anns[i])
		}
		return EncodeAnnotations(rw.pb, anns), nil
	case AttrRuntimeVisibleParameterAnnotations, AttrRuntimeInvisibleParameterAnnotations:
		params, err := DecodeParameterAnnotations(rw.orig, data)
		if err != nil {
			return nil, err
		}
		for _, anns := range params {
			for i := range anns {
				anns[i] = rw.remapAnnotation(anns[i])
			}
		}
		return EncodeParameterAnnotations(rw.pb, params), nil
	case AttrRuntimeVisibleTypeAnnotations, AttrRuntimeInvisibleTypeAnnotations:
		anns, err := DecodeTypeAnnotations(rw.orig, data)
		if err != nil {
			return nil, err
		}
		for i := range anns {
			anns[i].Annotation = rw.remapAnnotation(anns[i].Annotation)
		}
		return EncodeTypeAnnotations(rw.pb, anns), nil
	case AttrAnnotationDefault:
		v, err := DecodeElementValue(rw.orig, data)
		if err != nil {
			return nil, err
		}
		return EncodeElementValue(rw.pb, rw.remapElementValue(v)), nil
	case AttrInnerClasses:
		return rw.remapInnerClasses(data)
	case AttrEnclosingMethod:
		return rw.remapEnclosingMethod(data)
	case AttrRecord:
		return rw.remapRecord(data)
	case AttrCode:
		return rw.remapCode(data)
	case AttrLocalVariableTable:
		return rw.remapLocalVariables(data, false)
	case AttrLocalVariableTypeTable:
		return rw.remapLocalVariables(data, true)
	}
	return data, nil
}

func (rw *rewriter) remapSignatureAttr(data []byte) ([]byte, error) {
	r := binary.NewReader(data)
	idx, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	sig, err := rw.orig.Utf8(idx)
	if err != nil {
		return nil, err
	}
	mapped, err := RemapSignature(rw.r, sig)
	if err != nil {
		return nil, err
	}
	w := binary.NewWriter()
	w.WriteU2(rw.pb.Utf8(mapped))
	return w.Bytes(), nil
}

func (rw *rewriter) remapAnnotation(a Annotation) Annotation {
	out := Annotation{
		Type:     RemapDescriptor(rw.r, a.Type),
		Elements: make([]ElementPair, len(a.Elements)),
	}
	for i, p := range a.Elements {
		out.Elements[i] = ElementPair{Name: p.Name, Value: rw.remapElementValue(p.Value)}
	}
	return out
}

func (rw *rewriter) remapElementValue(v ElementValue) ElementValue {
	switch v.Tag {
	case 's':
		v.String = rw.r.MapValue(v.String)
	case 'e':
		v.EnumType = RemapDescriptor(rw.r, v.EnumType)
	case 'c':
		v.Class = RemapDescriptor(rw.r, v.Class)
	case '@':
		nested := rw.remapAnnotation(*v.Annotation)
		v.Annotation = &nested
	case '[':
		values := make([]ElementValue, len(v.Values))
		for i, e := range v.Values {
			values[i] = rw.remapElementValue(e)
		}
		v.Values = values
	}
	return v
}

func (rw *rewriter) remapInnerClasses(data []byte) ([]byte, error) {
	r := binary.NewReader(data)
	n, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	w := binary.NewWriter()
	w.WriteU2(n)
	for i := 0; i < int(n); i++ {
		var entry [4]uint16
		for j := range entry {
			if entry[j], err = r.ReadU2(); err != nil {
				return nil, err
			}
		}
		innerIdx, nameIdx := entry[0], entry[2]
		if nameIdx != 0 && innerIdx != 0 {
			innerClass, err := rw.orig.ClassName(innerIdx)
			if err != nil {
				return nil, err
			}
			simple, err := rw.orig.Utf8(nameIdx)
			if err != nil {
				return nil, err
			}
			entry[2] = rw.pb.Utf8(innerClassName(RemapType(rw.r, innerClass), simple))
		}
		for _, v := range entry {
			w.WriteU2(v)
		}
	}
	return w.Bytes(), r.ExpectEOF()
}

// innerClassName derives the simple name of a mapped inner class, the
// part after the last '$' without a leading local-class counter.
func innerClassName(mapped, original string) string {
	i := strings.LastIndexByte(mapped, '$')
	if i < 0 {
		return original
	}
	i++
	for i < len(mapped) && mapped[i] >= '0' && mapped[i] <= '9' {
		i++
	}
	if i == len(mapped) {
		return original
	}
	return mapped[i:]
}

func (rw *rewriter) remapEnclosingMethod(data []byte) ([]byte, error) {
	r := binary.NewReader(data)
	classIdx, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	natIdx, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	if natIdx != 0 {
		owner, err := rw.orig.ClassName(classIdx)
		if err != nil {
			return nil, err
		}
		name, desc, err := rw.orig.NameAndType(natIdx)
		if err != nil {
			return nil, err
		}
		newName := name
		if name != ConstructorName && name != StaticInitializerName {
			if newName, err = rw.r.MapMethodName(rw.ctx, owner, name, desc); err != nil {
				return nil, err
			}
		}
		natIdx = rw.pb.NameAndType(newName, RemapDescriptor(rw.r, desc))
	}
	w := binary.NewWriter()
	w.WriteU2(classIdx)
	w.WriteU2(natIdx)
	return w.Bytes(), r.ExpectEOF()
}

func (rw *rewriter) remapRecord(data []byte) ([]byte, error) {
	r := binary.NewReader(data)
	n, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	w := binary.NewWriter()
	w.WriteU2(n)
	for i := 0; i < int(n); i++ {
		nameIdx, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		descIdx, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		attrs, err := parseAttributes(r)
		if err != nil {
			return nil, err
		}
		name, err := rw.orig.Utf8(nameIdx)
		if err != nil {
			return nil, err
		}
		desc, err := rw.orig.Utf8(descIdx)
		if err != nil {
			return nil, err
		}
		newName, err := rw.r.MapFieldName(rw.ctx, rw.owner, name, desc)
		if err != nil {
			return nil, err
		}
		if attrs, err = rw.remapAttributes(attrs); err != nil {
			return nil, err
		}
		w.WriteU2(rw.pb.Utf8(newName))
		w.WriteU2(rw.pb.Utf8(RemapDescriptor(rw.r, desc)))
		writeAttributes(w, attrs)
	}
	return w.Bytes(), r.ExpectEOF()
}

func (rw *rewriter) remapCode(data []byte) ([]byte, error) {
	r := binary.NewReader(data)
	// max_stack, max_locals
	header, err := r.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	codeLen, err := r.ReadU4()
	if err != nil {
		return nil, err
	}
	code, err := r.ReadBytes(int(codeLen))
	if err != nil {
		return nil, err
	}
	excLen, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	exc, err := r.ReadBytes(int(excLen) * 8)
	if err != nil {
		return nil, err
	}
	attrs, err := parseAttributes(r)
	if err != nil {
		return nil, err
	}
	if err := r.ExpectEOF(); err != nil {
		return nil, err
	}
	if attrs, err = rw.remapAttributes(attrs); err != nil {
		return nil, err
	}

	w := binary.NewWriter()
	w.WriteBytes(header)
	w.WriteU4(codeLen)
	w.WriteBytes(code)
	w.WriteU2(excLen)
	w.WriteBytes(exc)
	writeAttributes(w, attrs)
	return w.Bytes(), nil
}

func (rw *rewriter) remapLocalVariables(data []byte, signatures bool) ([]byte, error) {
	r := binary.NewReader(data)
	n, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	w := binary.NewWriter()
	w.WriteU2(n)
	for i := 0; i < int(n); i++ {
		var entry [5]uint16 // start_pc, length, name, descriptor or signature, index
		for j := range entry {
			if entry[j], err = r.ReadU2(); err != nil {
				return nil, err
			}
		}
		desc, err := rw.orig.Utf8(entry[3])
		if err != nil {
			return nil, err
		}
		mapped := desc
		if signatures {
			if mapped, err = RemapSignature(rw.r, desc); err != nil {
				return nil, err
			}
		} else {
			mapped = RemapDescriptor(rw.r, desc)
		}
		entry[3] = rw.pb.Utf8(mapped)
		for _, v := range entry {
			w.WriteU2(v)
		}
	}
	return w.Bytes(), r.ExpectEOF()
}
