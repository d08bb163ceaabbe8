package classfile

import (
	"errors"
	"unicode/utf8"
)

// ErrInvalidModifiedUTF8 is returned for malformed CONSTANT_Utf8 payloads.
var ErrInvalidModifiedUTF8 = errors.New("invalid modified UTF-8")

// decodeModifiedUTF8 converts the JVM's modified UTF-8 into a Go string.
// Surrogate pairs become a single rune. Unpaired surrogates keep their
// three-byte form so that encoding restores the original bytes.
func decodeModifiedUTF8(data []byte) (string, error) {
	ascii := true
	for _, b := range data {
		if b == 0 || b >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(data), nil
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); {
		b := data[i]
		switch {
		case b != 0 && b < 0x80:
			out = append(out, b)
			i++
		case b&0xE0 == 0xC0:
			if i+1 >= len(data) || data[i+1]&0xC0 != 0x80 {
				return "", ErrInvalidModifiedUTF8
			}
			r := rune(b&0x1F)<<6 | rune(data[i+1]&0x3F)
			out = utf8.AppendRune(out, r)
			i += 2
		case b&0xF0 == 0xE0:
			if i+2 >= len(data) || data[i+1]&0xC0 != 0x80 || data[i+2]&0xC0 != 0x80 {
				return "", ErrInvalidModifiedUTF8
			}
			u := rune(b&0x0F)<<12 | rune(data[i+1]&0x3F)<<6 | rune(data[i+2]&0x3F)
			if u >= 0xD800 && u <= 0xDBFF && i+5 < len(data) && data[i+3] == 0xED && data[i+4]&0xF0 == 0xB0 {
				lo := rune(data[i+3]&0x0F)<<12 | rune(data[i+4]&0x3F)<<6 | rune(data[i+5]&0x3F)
				r := 0x10000 + (u-0xD800)<<10 + (lo - 0xDC00)
				out = utf8.AppendRune(out, r)
				i += 6
				continue
			}
			out = append(out, data[i:i+3]...)
			i += 3
		default:
			return "", ErrInvalidModifiedUTF8
		}
	}
	return string(out), nil
}

// encodeModifiedUTF8 is the inverse of decodeModifiedUTF8.
func encodeModifiedUTF8(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); {
		b := s[i]
		if b == 0 {
			out = append(out, 0xC0, 0x80)
			i++
			continue
		}
		if b < 0x80 {
			out = append(out, b)
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			// lone surrogate kept in three-byte form
			if b == 0xED && i+2 < len(s) {
				out = append(out, s[i:i+3]...)
				i += 3
				continue
			}
			out = append(out, b)
			i++
			continue
		}
		if r > 0xFFFF {
			r -= 0x10000
			hi := 0xD800 + (r >> 10)
			lo := 0xDC00 + (r & 0x3FF)
			out = append(out,
				0xE0|byte(hi>>12), 0x80|byte(hi>>6&0x3F), 0x80|byte(hi&0x3F),
				0xE0|byte(lo>>12), 0x80|byte(lo>>6&0x3F), 0x80|byte(lo&0x3F))
			i += size
			continue
		}
		out = append(out, s[i:i+size]...)
		i += size
	}
	return out
}
