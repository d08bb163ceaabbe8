package classfile

import (
	"errors"
	"fmt"

	"github.com/wippyai/jar-remapper/classfile/internal/binary"
)

// Parsing errors returned by Parse.
var (
	ErrInvalidMagic = errors.New("invalid classfile magic number")
	ErrUnknownTag   = errors.New("unknown constant pool tag")
)

// Parse parses a classfile.
func Parse(data []byte) (*ClassFile, error) {
	r := binary.NewReader(data)

	magic, err := r.ReadU4()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}

	cf := &ClassFile{}
	if cf.Minor, err = r.ReadU2(); err != nil {
		return nil, r.WrapError("header", err)
	}
	if cf.Major, err = r.ReadU2(); err != nil {
		return nil, r.WrapError("header", err)
	}

	if cf.Pool, err = parsePool(r); err != nil {
		return nil, r.WrapError("constant pool", err)
	}

	if cf.Access, err = r.ReadU2(); err != nil {
		return nil, r.WrapError("access flags", err)
	}
	if cf.ThisClass, err = r.ReadU2(); err != nil {
		return nil, r.WrapError("this class", err)
	}
	if cf.SuperClass, err = r.ReadU2(); err != nil {
		return nil, r.WrapError("super class", err)
	}
	if cf.Interfaces, err = r.ReadU2Slice(); err != nil {
		return nil, r.WrapError("interfaces", err)
	}
	if cf.Fields, err = parseMembers(r); err != nil {
		return nil, r.WrapError("fields", err)
	}
	if cf.Methods, err = parseMembers(r); err != nil {
		return nil, r.WrapError("methods", err)
	}
	if cf.Attributes, err = parseAttributes(r); err != nil {
		return nil, r.WrapError("attributes", err)
	}
	if err := r.ExpectEOF(); err != nil {
		return nil, r.WrapError("trailer", err)
	}

	if _, err := cf.Name(); err != nil {
		return nil, fmt.Errorf("this class: %w", err)
	}
	if _, err := cf.SuperName(); err != nil {
		return nil, fmt.Errorf("super class: %w", err)
	}
	return cf, nil
}

func parsePool(r *binary.Reader) (Pool, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("constant_pool_count is zero")
	}

	pool := make(Pool, count)
	for i := 1; i < int(count); i++ {
		tag, err := r.ReadU1()
		if err != nil {
			return nil, err
		}
		c := Constant{Tag: tag}
		switch tag {
		case TagUtf8:
			n, err := r.ReadU2()
			if err != nil {
				return nil, err
			}
			raw, err := r.ReadBytes(int(n))
			if err != nil {
				return nil, err
			}
			if c.Utf8, err = decodeModifiedUTF8(raw); err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
		case TagInteger, TagFloat:
			if c.Raw, err = r.ReadBytes(4); err != nil {
				return nil, err
			}
		case TagLong, TagDouble:
			if c.Raw, err = r.ReadBytes(8); err != nil {
				return nil, err
			}
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			if c.A, err = r.ReadU2(); err != nil {
				return nil, err
			}
		case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType, TagDynamic, TagInvokeDynamic:
			if c.A, err = r.ReadU2(); err != nil {
				return nil, err
			}
			if c.B, err = r.ReadU2(); err != nil {
				return nil, err
			}
		case TagMethodHandle:
			if c.RefKind, err = r.ReadU1(); err != nil {
				return nil, err
			}
			if c.A, err = r.ReadU2(); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w %d at entry %d", ErrUnknownTag, tag, i)
		}
		pool[i] = c
		if tag == TagLong || tag == TagDouble {
			// the following slot is unusable
			i++
		}
	}
	return pool, nil
}

func parseMembers(r *binary.Reader) ([]Member, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	members := make([]Member, count)
	for i := range members {
		m := &members[i]
		if m.Access, err = r.ReadU2(); err != nil {
			return nil, err
		}
		if m.Name, err = r.ReadU2(); err != nil {
			return nil, err
		}
		if m.Descriptor, err = r.ReadU2(); err != nil {
			return nil, err
		}
		if m.Attributes, err = parseAttributes(r); err != nil {
			return nil, err
		}
	}
	return members, nil
}

func parseAttributes(r *binary.Reader) ([]Attribute, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	attrs := make([]Attribute, count)
	for i := range attrs {
		if attrs[i].Name, err = r.ReadU2(); err != nil {
			return nil, err
		}
		n, err := r.ReadU4()
		if err != nil {
			return nil, err
		}
		if attrs[i].Data, err = r.ReadBytes(int(n)); err != nil {
			return nil, err
		}
	}
	return attrs, nil
}
