package classfile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadSignature is returned for malformed descriptors and signatures.
var ErrBadSignature = errors.New("malformed signature")

// InternalName returns the internal name for a field descriptor:
// "Lfoo/Bar;" becomes "foo/Bar". Array and primitive descriptors are
// returned unchanged.
func InternalName(desc string) string {
	if len(desc) >= 2 && desc[0] == 'L' && desc[len(desc)-1] == ';' {
		return desc[1 : len(desc)-1]
	}
	return desc
}

// Descriptor returns the field descriptor for an internal name.
func Descriptor(internalName string) string {
	if strings.HasPrefix(internalName, "[") {
		return internalName
	}
	return "L" + internalName + ";"
}

// ClassMapper maps internal class names.
type ClassMapper interface {
	Map(internalName string) string
}

// RemapType maps the name held by a CONSTANT_Class entry, which is either
// an internal name or an array descriptor.
func RemapType(m ClassMapper, name string) string {
	if strings.HasPrefix(name, "[") {
		return RemapDescriptor(m, name)
	}
	return m.Map(name)
}

// RemapDescriptor maps every class named in a field or method descriptor.
func RemapDescriptor(m ClassMapper, desc string) string {
	if !strings.Contains(desc, "L") {
		return desc
	}
	var b strings.Builder
	b.Grow(len(desc))
	for i := 0; i < len(desc); i++ {
		c := desc[i]
		if c != 'L' {
			b.WriteByte(c)
			continue
		}
		end := strings.IndexByte(desc[i:], ';')
		if end < 0 {
			// not a descriptor, leave the rest alone
			b.WriteString(desc[i:])
			break
		}
		b.WriteByte('L')
		b.WriteString(m.Map(desc[i+1 : i+end]))
		b.WriteByte(';')
		i += end
	}
	return b.String()
}

// RemapSignature maps every class named in a generic signature
// (class, method or field).
func RemapSignature(m ClassMapper, sig string) (string, error) {
	p := &sigRemapper{m: m, s: sig}
	p.b.Grow(len(sig))
	if err := p.run(); err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrBadSignature, sig, err)
	}
	return p.b.String(), nil
}

type sigRemapper struct {
	m ClassMapper
	b strings.Builder
	s string
	i int
}

func (p *sigRemapper) run() error {
	if p.peek() == '<' {
		if err := p.formalTypeParams(); err != nil {
			return err
		}
	}
	for p.i < len(p.s) {
		switch p.s[p.i] {
		case 'L':
			if err := p.classType(); err != nil {
				return err
			}
		case 'T':
			if err := p.typeVar(); err != nil {
				return err
			}
		default:
			p.b.WriteByte(p.s[p.i])
			p.i++
		}
	}
	return nil
}

func (p *sigRemapper) peek() byte {
	if p.i < len(p.s) {
		return p.s[p.i]
	}
	return 0
}

func (p *sigRemapper) expect(c byte) error {
	if p.peek() != c {
		return fmt.Errorf("expected %q at %d", c, p.i)
	}
	p.b.WriteByte(c)
	p.i++
	return nil
}

func (p *sigRemapper) formalTypeParams() error {
	if err := p.expect('<'); err != nil {
		return err
	}
	for p.peek() != '>' {
		end := strings.IndexByte(p.s[p.i:], ':')
		if end <= 0 {
			return fmt.Errorf("bad type parameter at %d", p.i)
		}
		p.b.WriteString(p.s[p.i : p.i+end])
		p.i += end
		for p.peek() == ':' {
			p.b.WriteByte(':')
			p.i++
			switch p.peek() {
			case 'L', 'T', '[':
				if err := p.refType(); err != nil {
					return err
				}
			}
		}
	}
	return p.expect('>')
}

func (p *sigRemapper) refType() error {
	switch p.peek() {
	case 'L':
		return p.classType()
	case 'T':
		return p.typeVar()
	case '[':
		p.b.WriteByte('[')
		p.i++
		switch c := p.peek(); c {
		case 'L', 'T', '[':
			return p.refType()
		case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
			p.b.WriteByte(c)
			p.i++
			return nil
		}
	}
	return fmt.Errorf("bad reference type at %d", p.i)
}

func (p *sigRemapper) typeVar() error {
	end := strings.IndexByte(p.s[p.i:], ';')
	if end < 0 {
		return fmt.Errorf("unterminated type variable at %d", p.i)
	}
	p.b.WriteString(p.s[p.i : p.i+end+1])
	p.i += end + 1
	return nil
}

func (p *sigRemapper) ident() (string, error) {
	start := p.i
	for p.i < len(p.s) {
		switch p.s[p.i] {
		case '<', '.', ';':
			if p.i == start {
				return "", fmt.Errorf("empty identifier at %d", p.i)
			}
			return p.s[start:p.i], nil
		}
		p.i++
	}
	return "", fmt.Errorf("unterminated class type at %d", start)
}

func (p *sigRemapper) classType() error {
	p.i++ // 'L'
	name, err := p.ident()
	if err != nil {
		return err
	}
	mapped := p.m.Map(name)
	p.b.WriteByte('L')
	p.b.WriteString(mapped)
	for {
		switch p.peek() {
		case '<':
			if err := p.typeArgs(); err != nil {
				return err
			}
		case '.':
			p.i++
			inner, err := p.ident()
			if err != nil {
				return err
			}
			full := name + "$" + inner
			mappedFull := p.m.Map(full)
			p.b.WriteByte('.')
			p.b.WriteString(innerSuffix(mapped, mappedFull, inner))
			name, mapped = full, mappedFull
		case ';':
			p.b.WriteByte(';')
			p.i++
			return nil
		default:
			return fmt.Errorf("unterminated class type at %d", p.i)
		}
	}
}

func (p *sigRemapper) typeArgs() error {
	if err := p.expect('<'); err != nil {
		return err
	}
	for p.peek() != '>' {
		switch p.peek() {
		case '*':
			p.b.WriteByte('*')
			p.i++
			continue
		case '+', '-':
			p.b.WriteByte(p.s[p.i])
			p.i++
		case 0:
			return fmt.Errorf("unterminated type arguments")
		}
		if err := p.refType(); err != nil {
			return err
		}
	}
	return p.expect('>')
}

// innerSuffix returns the simple name an inner class keeps after mapping.
func innerSuffix(mappedOuter, mappedFull, original string) string {
	if strings.HasPrefix(mappedFull, mappedOuter+"$") {
		return mappedFull[len(mappedOuter)+1:]
	}
	if i := strings.LastIndexByte(mappedFull, '$'); i >= 0 {
		return mappedFull[i+1:]
	}
	return original
}
