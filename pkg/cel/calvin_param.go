package cel

import (
	"bytes"
	"fmt"
	"math"
)

// MIMEType is the value type of a Calvin parameter, taken from the MIME
// string stored after its raw bytes.
type MIMEType uint8

const (
	MIMEUnknown MIMEType = iota
	MIMEInt8
	MIMEUint8
	MIMEInt16
	MIMEUint16
	MIMEInt32
	MIMEUint32
	MIMEFloat
	MIMEPlainText
	MIMEASCII
)

var mimeNames = [...]string{
	MIMEUnknown:   "unknown",
	MIMEInt8:      "text/x-calvin-integer-8",
	MIMEUint8:     "text/x-calvin-unsigned-integer-8",
	MIMEInt16:     "text/x-calvin-integer-16",
	MIMEUint16:    "text/x-calvin-unsigned-integer-16",
	MIMEInt32:     "text/x-calvin-integer-32",
	MIMEUint32:    "text/x-calvin-unsigned-integer-32",
	MIMEFloat:     "text/x-calvin-float",
	MIMEPlainText: "text/plain",
	MIMEASCII:     "text/ascii",
}

func (t MIMEType) String() string {
	if int(t) < len(mimeNames) {
		return mimeNames[t]
	}
	return fmt.Sprintf("mime(%d)", uint8(t))
}

// ParseMIMEType maps a Calvin MIME string onto its type. Unrecognised
// strings are MIMEUnknown and their values stay raw bytes.
func ParseMIMEType(s string) MIMEType {
	for t, name := range mimeNames {
		if t != int(MIMEUnknown) && name == s {
			return MIMEType(t)
		}
	}
	return MIMEUnknown
}

// Parameter is one name/value/type triplet from a Calvin header or dataset.
type Parameter struct {
	Name  string
	Value []byte
	Type  MIMEType
	MIME  string

	bo byteOrder
}

func readParameter(r *reader) (Parameter, error) {
	name, err := r.readWideString()
	if err != nil {
		return Parameter{}, fmt.Errorf("name: %w", err)
	}
	n, err := r.readI32()
	if err != nil {
		return Parameter{}, fmt.Errorf("%s: value length: %w", name, err)
	}
	if n < 0 {
		return Parameter{}, fmt.Errorf("%w: %s: value length %d", ErrStructure, name, n)
	}
	raw, err := r.readN(int(n))
	if err != nil {
		return Parameter{}, fmt.Errorf("%s: value: %w", name, err)
	}
	mime, err := r.readWideString()
	if err != nil {
		return Parameter{}, fmt.Errorf("%s: type: %w", name, err)
	}
	return Parameter{
		Name:  name,
		Value: bytes.Clone(raw),
		Type:  ParseMIMEType(mime),
		MIME:  mime,
		bo:    r.bo,
	}, nil
}

func readParameters(r *reader, count int32) ([]Parameter, error) {
	if err := checkCount(r, int64(count), minParameterSize); err != nil {
		return nil, fmt.Errorf("parameter count: %w", err)
	}
	params := make([]Parameter, 0, count)
	for i := range count {
		p, err := readParameter(r)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		params = append(params, p)
	}
	return params, nil
}

func (p Parameter) fixed(n int) ([]byte, error) {
	if len(p.Value) < n {
		return nil, fmt.Errorf("%w: parameter %s holds %d bytes, need %d", ErrStructure, p.Name, len(p.Value), n)
	}
	return p.Value[:n], nil
}

func (p Parameter) Int8() (int8, error) {
	b, err := p.fixed(1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (p Parameter) Uint8() (uint8, error) {
	b, err := p.fixed(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (p Parameter) Int16() (int16, error) {
	v, err := p.Uint16()
	return int16(v), err
}

func (p Parameter) Uint16() (uint16, error) {
	b, err := p.fixed(2)
	if err != nil {
		return 0, err
	}
	return p.bo.order.Uint16(b), nil
}

func (p Parameter) Int32() (int32, error) {
	v, err := p.Uint32()
	return int32(v), err
}

func (p Parameter) Uint32() (uint32, error) {
	b, err := p.fixed(4)
	if err != nil {
		return 0, err
	}
	return p.bo.order.Uint32(b), nil
}

func (p Parameter) Float() (float32, error) {
	u, err := p.Uint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(u), nil
}

// Text decodes the value as inline 2-byte characters, low byte kept.
func (p Parameter) Text() string {
	return narrowUnits(p.Value)
}

// Decoded returns the value converted according to its MIME type. Unknown
// types come back as the raw bytes.
func (p Parameter) Decoded() (any, error) {
	switch p.Type {
	case MIMEInt8:
		return p.Int8()
	case MIMEUint8:
		return p.Uint8()
	case MIMEInt16:
		return p.Int16()
	case MIMEUint16:
		return p.Uint16()
	case MIMEInt32:
		return p.Int32()
	case MIMEUint32:
		return p.Uint32()
	case MIMEFloat:
		return p.Float()
	case MIMEPlainText, MIMEASCII:
		return p.Text(), nil
	default:
		return p.Value, nil
	}
}

// FormatValue renders the decoded value for dumps and logs.
func (p Parameter) FormatValue() string {
	v, err := p.Decoded()
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	switch val := v.(type) {
	case string:
		return fmt.Sprintf("%q", val)
	case []byte:
		return fmt.Sprintf("%q", cString(val))
	default:
		return fmt.Sprintf("%v", val)
	}
}
