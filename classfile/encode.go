package classfile

import (
	"github.com/wippyai/jar-remapper/classfile/internal/binary"
	rerrors "github.com/wippyai/jar-remapper/errors"
)

// Encode encodes the class to classfile format.
func (cf *ClassFile) Encode() ([]byte, error) {
	if len(cf.Pool) > MaxPoolSize {
		return nil, rerrors.Overflow(rerrors.PhaseEncode, []string{"constant_pool"}, len(cf.Pool), "constant_pool_count")
	}

	w := binary.NewWriter()
	w.WriteU4(Magic)
	w.WriteU2(cf.Minor)
	w.WriteU2(cf.Major)

	pool := cf.Pool
	if len(pool) == 0 {
		pool = Pool{{}}
	}
	w.WriteU2(uint16(len(pool)))
	for i := 1; i < len(pool); i++ {
		c := pool[i]
		if c.Tag == 0 {
			// second slot of a Long or Double
			continue
		}
		w.Byte(c.Tag)
		switch c.Tag {
		case TagUtf8:
			raw := encodeModifiedUTF8(c.Utf8)
			if len(raw) > 0xFFFF {
				return nil, rerrors.Overflow(rerrors.PhaseEncode, []string{"constant_pool"}, len(raw), "Utf8 length")
			}
			w.WriteU2(uint16(len(raw)))
			w.WriteBytes(raw)
		case TagInteger, TagFloat, TagLong, TagDouble:
			w.WriteBytes(c.Raw)
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			w.WriteU2(c.A)
		case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType, TagDynamic, TagInvokeDynamic:
			w.WriteU2(c.A)
			w.WriteU2(c.B)
		case TagMethodHandle:
			w.Byte(c.RefKind)
			w.WriteU2(c.A)
		default:
			return nil, rerrors.New(rerrors.PhaseEncode, rerrors.KindUnsupported).
				Detail("constant pool tag %d at entry %d", c.Tag, i).
				Build()
		}
	}

	w.WriteU2(cf.Access)
	w.WriteU2(cf.ThisClass)
	w.WriteU2(cf.SuperClass)
	w.WriteU2Slice(cf.Interfaces)
	writeMembers(w, cf.Fields)
	writeMembers(w, cf.Methods)
	writeAttributes(w, cf.Attributes)
	return w.Bytes(), nil
}

func writeMembers(w *binary.Writer, members []Member) {
	w.WriteU2(uint16(len(members)))
	for _, m := range members {
		w.WriteU2(m.Access)
		w.WriteU2(m.Name)
		w.WriteU2(m.Descriptor)
		writeAttributes(w, m.Attributes)
	}
}

func writeAttributes(w *binary.Writer, attrs []Attribute) {
	w.WriteU2(uint16(len(attrs)))
	for _, a := range attrs {
		w.WriteU2(a.Name)
		w.WriteU4(uint32(len(a.Data)))
		w.WriteBytes(a.Data)
	}
}
