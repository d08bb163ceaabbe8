package binary

import "encoding/binary"

// Writer accumulates big-endian classfile output.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 256)}
}

// Bytes returns everything written so far. The slice aliases the writer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len is the number of bytes written.
func (w *Writer) Len() int { return len(w.buf) }

// Byte appends a u1.
func (w *Writer) Byte(b byte) { w.buf = append(w.buf, b) }

// WriteBytes appends data verbatim.
func (w *Writer) WriteBytes(data []byte) { w.buf = append(w.buf, data...) }

// WriteU2 appends a u2.
func (w *Writer) WriteU2(v uint16) { w.buf = binary.BigEndian.AppendUint16(w.buf, v) }

// WriteU4 appends a u4.
func (w *Writer) WriteU4(v uint32) { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }

// WriteU2Slice appends a u2 count followed by the values.
func (w *Writer) WriteU2Slice(vs []uint16) {
	w.WriteU2(uint16(len(vs)))
	for _, v := range vs {
		w.WriteU2(v)
	}
}
