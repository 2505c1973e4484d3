package persist

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf16"
	"unicode/utf8"
)

// maxUTFLen is the largest encoded string a two-byte length prefix can
// describe.
const maxUTFLen = 0xFFFF

// ErrStringTooLong is returned when a string does not fit the two-byte
// length prefix.
var ErrStringTooLong = errors.New("encoded string exceeds 65535 bytes")

// ErrMalformedString is returned for a string that is not valid modified
// UTF-8.
var ErrMalformedString = errors.New("malformed modified UTF-8")

// writer writes big-endian integers and length-prefixed strings. The
// first error sticks; later writes are no-ops.
type writer struct {
	w   *bufio.Writer
	err error
}

func newWriter(w io.Writer) *writer {
	return &writer{w: bufio.NewWriter(w)}
}

func (w *writer) int32(v int32) {
	if w.err != nil {
		return
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	_, w.err = w.w.Write(b[:])
}

// utf writes s as a two-byte length followed by modified UTF-8: NUL is
// written as two bytes and characters outside the BMP as two encoded
// surrogates of three bytes each.
func (w *writer) utf(s string) {
	if w.err != nil {
		return
	}
	buf := encodeModifiedUTF8(s)
	if len(buf) > maxUTFLen {
		w.err = fmt.Errorf("%w: %d bytes", ErrStringTooLong, len(buf))
		return
	}
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(len(buf)))
	if _, w.err = w.w.Write(b[:]); w.err != nil {
		return
	}
	_, w.err = w.w.Write(buf)
}

func (w *writer) flush() error {
	if w.err != nil {
		return w.err
	}
	return w.w.Flush()
}

// reader is the counterpart of writer.
type reader struct {
	r   *bufio.Reader
	err error
}

func newReader(r io.Reader) *reader {
	return &reader{r: bufio.NewReaderSize(r, 8192)}
}

func (r *reader) int32() int32 {
	if r.err != nil {
		return 0
	}
	var b [4]byte
	if _, r.err = io.ReadFull(r.r, b[:]); r.err != nil {
		return 0
	}
	return int32(binary.BigEndian.Uint32(b[:]))
}

func (r *reader) utf() string {
	if r.err != nil {
		return ""
	}
	var b [2]byte
	if _, r.err = io.ReadFull(r.r, b[:]); r.err != nil {
		return ""
	}
	buf := make([]byte, binary.BigEndian.Uint16(b[:]))
	if _, r.err = io.ReadFull(r.r, buf); r.err != nil {
		return ""
	}
	var s string
	s, r.err = decodeModifiedUTF8(buf)
	return s
}

func encodeModifiedUTF8(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r >= 0x10000 {
			hi, lo := utf16.EncodeRune(r)
			out = appendUnit(out, uint16(hi))
			out = appendUnit(out, uint16(lo))
			continue
		}
		out = appendUnit(out, uint16(r))
	}
	return out
}

func appendUnit(out []byte, c uint16) []byte {
	switch {
	case c >= 0x0001 && c <= 0x007F:
		return append(out, byte(c))
	case c <= 0x07FF:
		return append(out, byte(0xC0|(c>>6)), byte(0x80|(c&0x3F)))
	default:
		return append(out, byte(0xE0|(c>>12)), byte(0x80|((c>>6)&0x3F)), byte(0x80|(c&0x3F)))
	}
}

func decodeModifiedUTF8(buf []byte) (string, error) {
	units := make([]uint16, 0, len(buf))
	for i := 0; i < len(buf); {
		c := buf[i]
		switch {
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(buf) || buf[i+1]&0xC0 != 0x80 {
				return "", fmt.Errorf("%w at byte %d", ErrMalformedString, i)
			}
			units = append(units, uint16(c&0x1F)<<6|uint16(buf[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(buf) || buf[i+1]&0xC0 != 0x80 || buf[i+2]&0xC0 != 0x80 {
				return "", fmt.Errorf("%w at byte %d", ErrMalformedString, i)
			}
			units = append(units, uint16(c&0x0F)<<12|uint16(buf[i+1]&0x3F)<<6|uint16(buf[i+2]&0x3F))
			i += 3
		default:
			return "", fmt.Errorf("%w at byte %d", ErrMalformedString, i)
		}
	}

	runes := utf16.Decode(units)
	out := make([]byte, 0, len(runes))
	for _, r := range runes {
		out = utf8.AppendRune(out, r)
	}
	return string(out), nil
}
