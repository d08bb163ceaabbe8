// Package binary holds the big-endian cursor types the classfile codec
// reads and writes through.
package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"slices"
)

// ErrTrailingData is returned when a structure ends before its input does.
var ErrTrailingData = errors.New("trailing data")

// Reader is a cursor over a classfile or attribute payload.
type Reader struct {
	data []byte
	off  int
}

// NewReader returns a cursor at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Position is the offset of the next unread byte.
func (r *Reader) Position() int { return r.off }

// Len is the number of unread bytes.
func (r *Reader) Len() int { return len(r.data) - r.off }

// take advances over n bytes and returns them without copying.
func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || n > r.Len() {
		return nil, io.ErrUnexpectedEOF
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

// ReadByte reads one byte.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadBytes returns a copy of the next n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	return slices.Clone(b), nil
}

// ReadU1 reads a u1.
func (r *Reader) ReadU1() (uint8, error) { return r.ReadByte() }

// ReadU2 reads a u2.
func (r *Reader) ReadU2() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadU4 reads a u4.
func (r *Reader) ReadU4() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadU2Slice reads a u2 count and that many u2 values, the layout of
// interface and exception tables.
func (r *Reader) ReadU2Slice() ([]uint16, error) {
	n, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	b, err := r.take(int(n) * 2)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, n)
	for i := range out {
		out[i] = binary.BigEndian.Uint16(b[2*i:])
	}
	return out, nil
}

// ReadRemaining returns a copy of everything not yet read.
func (r *Reader) ReadRemaining() ([]byte, error) {
	return r.ReadBytes(r.Len())
}

// ExpectEOF fails if unread bytes remain.
func (r *Reader) ExpectEOF() error {
	if n := r.Len(); n != 0 {
		return r.WrapError("", fmt.Errorf("%w: %d bytes", ErrTrailingData, n))
	}
	return nil
}

// ParseError locates a decoding failure inside a classfile structure.
type ParseError struct {
	Err      error
	Section  string
	Position int
}

func (e *ParseError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("classfile: offset %d: %v", e.Position, e.Err)
	}
	return fmt.Sprintf("classfile: %s at offset %d: %v", e.Section, e.Position, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// WrapError attaches the current offset and section to err. An error
// that already carries a location keeps the innermost one.
func (r *Reader) WrapError(section string, err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		if pe.Section == "" {
			pe.Section = section
		}
		return err
	}
	return &ParseError{Err: err, Section: section, Position: r.off}
}
