package cel

import "errors"

var (
	ErrOpen          = errors.New("cannot open CEL file")
	ErrUnknownFormat = errors.New("unrecognised CEL format")
	ErrReadFailed    = errors.New("CEL read failed")
	ErrStructure     = errors.New("CEL structure mismatch")
	ErrClosed        = errors.New("CEL source is closed")
)
