package report

import (
	"io"

	"github.com/goccy/go-json"
	"golang.org/x/text/encoding/charmap"

	"github.com/samcharles93/checkcel/pkg/cel"
)

type jsonStats struct {
	Min     float32 `json:"min"`
	Max     float32 `json:"max"`
	Unique  int     `json:"unique"`
	Invalid int     `json:"invalid"`
}

type jsonRecord struct {
	RunID      string     `json:"run_id,omitempty"`
	File       string     `json:"file"`
	Valid      bool       `json:"valid"`
	Format     string     `json:"format"`
	Codec      string     `json:"codec,omitempty"`
	ArrayID    string     `json:"array_id,omitempty"`
	Algorithm  string     `json:"algorithm,omitempty"`
	Rows       int32      `json:"rows"`
	Cols       int32      `json:"cols"`
	CellMargin int32      `json:"cell_margin"`
	Outliers   uint32     `json:"outliers"`
	Masked     uint32     `json:"masked"`
	Intensity  *jsonStats `json:"intensity,omitempty"`
	Digest     string     `json:"digest,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// jsonWriter emits one JSON object per line.
type jsonWriter struct {
	enc  *json.Encoder
	opts Options
}

func newJSONWriter(w io.Writer, opts Options) *jsonWriter {
	return &jsonWriter{enc: json.NewEncoder(w), opts: opts}
}

func (j *jsonWriter) Write(rec *cel.Record) error {
	if !rec.Valid && j.opts.Filter {
		return nil
	}
	out := jsonRecord{
		RunID:      j.opts.RunID,
		File:       rec.Name,
		Valid:      rec.Valid,
		Format:     rec.Format.String(),
		ArrayID:    latin1(rec.ArrayID),
		Algorithm:  latin1(rec.Algorithm),
		Rows:       rec.Rows,
		Cols:       rec.Cols,
		CellMargin: rec.CellMargin,
		Outliers:   rec.Outliers,
		Masked:     rec.Masked,
		Digest:     rec.Digest,
	}
	if rec.Codec != cel.CodecNone {
		out.Codec = rec.Codec.String()
	}
	if s := rec.Stats; s != nil {
		out.Intensity = &jsonStats{Min: s.Min, Max: s.Max, Unique: s.Unique, Invalid: s.Invalid}
	}
	if rec.Err != nil {
		out.Error = rec.Err.Error()
	}
	return j.enc.Encode(out)
}

// latin1 converts a single-byte CEL string to UTF-8. CEL header strings are
// one byte per character, so bytes above 0x7f are Latin-1, not UTF-8.
func latin1(s string) string {
	out, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return out
}
