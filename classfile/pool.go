package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"

	rerrors "github.com/wippyai/jar-remapper/errors"
)

// ErrBadIndex is returned when a constant pool index is out of range or
// refers to an entry of the wrong kind.
var ErrBadIndex = errors.New("bad constant pool index")

// Pool is a constant pool. Index 0 is unused.
type Pool []Constant

// Clone returns a copy of the pool that can be extended independently.
func (p Pool) Clone() Pool {
	out := make(Pool, len(p))
	copy(out, p)
	return out
}

// Entry returns the constant at idx, checking its tag when tags are given.
func (p Pool) Entry(idx uint16, tags ...byte) (Constant, error) {
	if idx == 0 || int(idx) >= len(p) {
		return Constant{}, fmt.Errorf("%w: %d (size %d)", ErrBadIndex, idx, len(p))
	}
	c := p[idx]
	if len(tags) == 0 {
		return c, nil
	}
	for _, t := range tags {
		if c.Tag == t {
			return c, nil
		}
	}
	return Constant{}, fmt.Errorf("%w: %d has tag %d, want %v", ErrBadIndex, idx, c.Tag, tags)
}

// Utf8 resolves a CONSTANT_Utf8 entry.
func (p Pool) Utf8(idx uint16) (string, error) {
	c, err := p.Entry(idx, TagUtf8)
	if err != nil {
		return "", err
	}
	return c.Utf8, nil
}

// ClassName resolves a CONSTANT_Class entry to its internal name.
func (p Pool) ClassName(idx uint16) (string, error) {
	c, err := p.Entry(idx, TagClass)
	if err != nil {
		return "", err
	}
	return p.Utf8(c.A)
}

// StringValue resolves a CONSTANT_String entry.
func (p Pool) StringValue(idx uint16) (string, error) {
	c, err := p.Entry(idx, TagString)
	if err != nil {
		return "", err
	}
	return p.Utf8(c.A)
}

// NameAndType resolves a CONSTANT_NameAndType entry.
func (p Pool) NameAndType(idx uint16) (name, desc string, err error) {
	c, err := p.Entry(idx, TagNameAndType)
	if err != nil {
		return "", "", err
	}
	if name, err = p.Utf8(c.A); err != nil {
		return "", "", err
	}
	if desc, err = p.Utf8(c.B); err != nil {
		return "", "", err
	}
	return name, desc, nil
}

// MemberRef resolves a Fieldref, Methodref or InterfaceMethodref entry.
func (p Pool) MemberRef(idx uint16) (owner, name, desc string, err error) {
	c, err := p.Entry(idx, TagFieldref, TagMethodref, TagInterfaceMethodref)
	if err != nil {
		return "", "", "", err
	}
	if owner, err = p.ClassName(c.A); err != nil {
		return "", "", "", err
	}
	name, desc, err = p.NameAndType(c.B)
	return owner, name, desc, err
}

// Integer resolves a CONSTANT_Integer entry.
func (p Pool) Integer(idx uint16) (int32, error) {
	c, err := p.Entry(idx, TagInteger)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(c.Raw)), nil
}

// PoolBuilder appends entries to a pool, reusing identical Utf8 and
// NameAndType entries. Existing entries keep their indices so that code
// operands stay valid.
type PoolBuilder struct {
	pool  Pool
	utf8  map[string]uint16
	nat   map[[2]uint16]uint16
	class map[uint16]uint16
	err   error
}

// NewPoolBuilder returns a builder over a copy of base. A nil base starts
// an empty pool.
func NewPoolBuilder(base Pool) *PoolBuilder {
	if len(base) == 0 {
		base = Pool{{}}
	}
	b := &PoolBuilder{
		pool:  base.Clone(),
		utf8:  make(map[string]uint16),
		nat:   make(map[[2]uint16]uint16),
		class: make(map[uint16]uint16),
	}
	for i, c := range b.pool {
		idx := uint16(i)
		switch c.Tag {
		case TagUtf8:
			if _, ok := b.utf8[c.Utf8]; !ok {
				b.utf8[c.Utf8] = idx
			}
		case TagNameAndType:
			key := [2]uint16{c.A, c.B}
			if _, ok := b.nat[key]; !ok {
				b.nat[key] = idx
			}
		case TagClass:
			if _, ok := b.class[c.A]; !ok {
				b.class[c.A] = idx
			}
		}
	}
	return b
}

// Pool returns the built pool.
func (b *PoolBuilder) Pool() Pool {
	return b.pool
}

// Err returns the first error encountered while appending.
func (b *PoolBuilder) Err() error {
	return b.err
}

// Set replaces the entry at idx.
func (b *PoolBuilder) Set(idx uint16, c Constant) {
	b.pool[idx] = c
}

func (b *PoolBuilder) add(c Constant) uint16 {
	slots := 1
	if c.Tag == TagLong || c.Tag == TagDouble {
		slots = 2
	}
	if len(b.pool)+slots > MaxPoolSize {
		if b.err == nil {
			b.err = rerrors.Overflow(rerrors.PhaseEncode, []string{"constant_pool"}, len(b.pool)+slots, "constant_pool_count")
		}
		return 0
	}
	idx := uint16(len(b.pool))
	b.pool = append(b.pool, c)
	if slots == 2 {
		b.pool = append(b.pool, Constant{})
	}
	return idx
}

// Utf8 returns the index of a Utf8 entry holding s.
func (b *PoolBuilder) Utf8(s string) uint16 {
	if idx, ok := b.utf8[s]; ok {
		return idx
	}
	idx := b.add(Constant{Tag: TagUtf8, Utf8: s})
	if idx != 0 {
		b.utf8[s] = idx
	}
	return idx
}

// NameAndType returns the index of a NameAndType entry.
func (b *PoolBuilder) NameAndType(name, desc string) uint16 {
	key := [2]uint16{b.Utf8(name), b.Utf8(desc)}
	if idx, ok := b.nat[key]; ok {
		return idx
	}
	idx := b.add(Constant{Tag: TagNameAndType, A: key[0], B: key[1]})
	if idx != 0 {
		b.nat[key] = idx
	}
	return idx
}

// Class returns the index of a Class entry for an internal name.
func (b *PoolBuilder) Class(name string) uint16 {
	u := b.Utf8(name)
	if idx, ok := b.class[u]; ok {
		return idx
	}
	idx := b.add(Constant{Tag: TagClass, A: u})
	if idx != 0 {
		b.class[u] = idx
	}
	return idx
}

// String appends a String entry.
func (b *PoolBuilder) String(s string) uint16 {
	return b.add(Constant{Tag: TagString, A: b.Utf8(s)})
}

// Integer appends an Integer entry.
func (b *PoolBuilder) Integer(v int32) uint16 {
	raw := make([]byte, 4)
	binary.BigEndian.PutUint32(raw, uint32(v))
	return b.add(Constant{Tag: TagInteger, Raw: raw})
}

// Long appends a Long entry, which takes two slots.
func (b *PoolBuilder) Long(v int64) uint16 {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, uint64(v))
	return b.add(Constant{Tag: TagLong, Raw: raw})
}

// Fieldref appends a Fieldref entry.
func (b *PoolBuilder) Fieldref(owner, name, desc string) uint16 {
	return b.add(Constant{Tag: TagFieldref, A: b.Class(owner), B: b.NameAndType(name, desc)})
}

// Methodref appends a Methodref entry.
func (b *PoolBuilder) Methodref(owner, name, desc string) uint16 {
	return b.add(Constant{Tag: TagMethodref, A: b.Class(owner), B: b.NameAndType(name, desc)})
}

// InterfaceMethodref appends an InterfaceMethodref entry.
func (b *PoolBuilder) InterfaceMethodref(owner, name, desc string) uint16 {
	return b.add(Constant{Tag: TagInterfaceMethodref, A: b.Class(owner), B: b.NameAndType(name, desc)})
}

// MethodType appends a MethodType entry.
func (b *PoolBuilder) MethodType(desc string) uint16 {
	return b.add(Constant{Tag: TagMethodType, A: b.Utf8(desc)})
}

// Package appends a Package entry.
func (b *PoolBuilder) Package(name string) uint16 {
	return b.add(Constant{Tag: TagPackage, A: b.Utf8(name)})
}
