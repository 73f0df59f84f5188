package cel

import (
	"fmt"
	"io"
	"math"
)

type reader struct {
	src *Source
	bo  byteOrder
}

func newReader(src *Source, bo byteOrder) *reader {
	return &reader{src: src, bo: bo}
}

// withOrder returns a reader over the same source with a different byte order.
func (r *reader) withOrder(bo byteOrder) *reader {
	return &reader{src: r.src, bo: bo}
}

func (r *reader) readN(n int) ([]byte, error) {
	return r.src.ReadExact(n)
}

func (r *reader) seek(off int64) error {
	if off < 0 {
		return fmt.Errorf("%w: seek to %d", ErrReadFailed, off)
	}
	_, err := r.src.Seek(off, io.SeekStart)
	return err
}

func (r *reader) readU8() (uint8, error) {
	b, err := r.readN(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) readI8() (int8, error) {
	v, err := r.readU8()
	return int8(v), err
}

func (r *reader) readU16() (uint16, error) {
	b, err := r.readN(2)
	if err != nil {
		return 0, err
	}
	return r.bo.order.Uint16(b), nil
}

func (r *reader) readI16() (int16, error) {
	v, err := r.readU16()
	return int16(v), err
}

func (r *reader) readU32() (uint32, error) {
	b, err := r.readN(4)
	if err != nil {
		return 0, err
	}
	return r.bo.order.Uint32(b), nil
}

func (r *reader) readI32() (int32, error) {
	v, err := r.readU32()
	return int32(v), err
}

// readF32 reinterprets the bits of a 32-bit integer read.
func (r *reader) readF32() (float32, error) {
	u, err := r.readU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(u), nil
}

// readF32s reads count packed floats in one bounds-checked span.
func (r *reader) readF32s(count int) ([]float32, error) {
	if count < 0 || count > math.MaxInt/4 {
		return nil, fmt.Errorf("%w: invalid float count %d", ErrReadFailed, count)
	}
	b, err := r.readN(count * 4)
	if err != nil {
		return nil, err
	}
	out := make([]float32, count)
	for i := range out {
		out[i] = math.Float32frombits(r.bo.order.Uint32(b[i*4:]))
	}
	return out, nil
}

func (r *reader) readLength() (int, error) {
	n, err := r.readI32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative string length %d", ErrStructure, n)
	}
	return int(n), nil
}

// readNarrowString reads a 4-byte length and that many one-byte characters.
func (r *reader) readNarrowString() (string, error) {
	n, err := r.readLength()
	if err != nil {
		return "", err
	}
	b, err := r.readN(n)
	if err != nil {
		return "", err
	}
	return cString(b), nil
}

// readWideString reads a 4-byte character count and 2 bytes per character,
// keeping only the low byte of each big-endian unit.
func (r *reader) readWideString() (string, error) {
	n, err := r.readLength()
	if err != nil {
		return "", err
	}
	if n > math.MaxInt/2 {
		return "", fmt.Errorf("%w: wide string length %d", ErrStructure, n)
	}
	b, err := r.readN(n * 2)
	if err != nil {
		return "", err
	}
	return narrowUnits(b), nil
}

// narrowUnits drops the high byte of every 2-byte unit.
func narrowUnits(b []byte) string {
	out := make([]byte, len(b)/2)
	for i := range out {
		out[i] = b[1+i*2]
	}
	return cString(out)
}

// cString truncates b at its first NUL, as the fixed-size CEL fields are
// NUL padded.
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// lowerASCII lowercases A-Z only and leaves every other byte untouched.
func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
