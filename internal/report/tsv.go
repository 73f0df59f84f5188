package report

import (
	"fmt"
	"io"

	"github.com/samcharles93/checkcel/pkg/cel"
)

// tsvWriter prints the classic checkcel columns:
// file, format, array, algorithm, rows, cols, margin, outliers, masked,
// then min, max, unique, invalid when intensities were read.
type tsvWriter struct {
	w    io.Writer
	opts Options
}

func (t *tsvWriter) Write(rec *cel.Record) error {
	if !rec.Valid || rec.Format == cel.FormatUnknown {
		if t.opts.Filter {
			return nil
		}
		_, err := fmt.Fprintf(t.w, "%s\tunknown\n", rec.Name)
		return err
	}

	line := fmt.Appendf(nil, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d",
		rec.Name, rec.Format, rec.ArrayID, rec.Algorithm,
		rec.Rows, rec.Cols, rec.CellMargin, rec.Outliers, rec.Masked)
	if s := rec.Stats; s != nil {
		line = fmt.Appendf(line, "\t%.0f\t%.0f\t%d\t%d", s.Min, s.Max, s.Unique, s.Invalid)
	}
	if rec.Digest != "" {
		line = fmt.Appendf(line, "\t%s", rec.Digest)
	}
	line = append(line, '\n')
	_, err := t.w.Write(line)
	return err
}
