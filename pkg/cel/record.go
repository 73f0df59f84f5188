package cel

import "fmt"

// Format is the on-disk encoding of a CEL file.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatBinary
	FormatCalvin
	FormatText
)

func (f Format) String() string {
	switch f {
	case FormatUnknown:
		return "unknown"
	case FormatBinary:
		return "binary"
	case FormatCalvin:
		return "calvin"
	case FormatText:
		return "text"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// Record is the unified parse result for one CEL file, whatever its encoding.
type Record struct {
	Name       string
	Valid      bool
	Format     Format
	ArrayID    string
	Algorithm  string
	Rows       int32
	Cols       int32
	CellMargin int32
	Outliers   uint32
	Masked     uint32

	// Stats is set only when intensity decoding was requested and succeeded.
	Stats *IntensityStats

	// Codec records the compression wrapper the file was read through.
	Codec Codec
	// Digest is the hex BLAKE3 digest of the contents, when requested.
	Digest string

	// Err explains why Valid is false. It is nil for valid records.
	Err error
}

// Cells is the grid size declared by the record.
func (r *Record) Cells() int64 {
	return int64(r.Rows) * int64(r.Cols)
}

// invalid returns a fresh record carrying only the failure.
func invalid(name string, err error) *Record {
	return &Record{Name: name, Format: FormatUnknown, Err: err}
}
