package cel

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/samcharles93/checkcel/internal/logger"
)

const (
	sectionHeader    = "HEADER"
	sectionIntensity = "INTENSITY"
	sectionMasks     = "MASKS"
	sectionOutliers  = "OUTLIERS"

	tagNumberCells = "NumberCells"
	tagCellHeader  = "CellHeader"
	cellMarginKey  = "CellMargin:"
)

// decodeText streams a version 3 text CEL file line by line.
func decodeText(ctx context.Context, src *Source, wantIntensity bool) (*Record, error) {
	log := logger.FromContext(ctx).With("format", FormatText.String())
	if err := src.Rewind(); err != nil {
		return nil, err
	}
	sc := newLineScanner(src)
	rec := &Record{Format: FormatText}

	for {
		ln, err := sc.next()
		if err != nil {
			return nil, err
		}
		switch ln.kind {
		case lineEOF:
			return rec, nil
		case lineTag:
			if sc.section == sectionHeader {
				applyHeaderTag(rec, ln)
			}
		case lineHeader:
			switch ln.section {
			case sectionIntensity:
				n, err := readBlockCount(sc, src.Size())
				if err != nil {
					return nil, fmt.Errorf("[%s]: %w", ln.section, err)
				}
				log.Debug("text block", "section", ln.section, "cells", n)
				if !wantIntensity {
					if err := skipDataLines(sc, n); err != nil {
						return nil, fmt.Errorf("[%s]: %w", ln.section, err)
					}
					continue
				}
				values, err := readIntensityLines(sc, n)
				if err != nil {
					return nil, fmt.Errorf("[%s]: %w", ln.section, err)
				}
				stats := ComputeIntensityStats(values)
				rec.Stats = &stats
			case sectionMasks, sectionOutliers:
				n, err := readBlockCount(sc, src.Size())
				if err != nil {
					return nil, fmt.Errorf("[%s]: %w", ln.section, err)
				}
				log.Debug("text block", "section", ln.section, "cells", n)
				if ln.section == sectionMasks {
					rec.Masked = uint32(n)
				} else {
					rec.Outliers = uint32(n)
				}
				if err := skipDataLines(sc, n); err != nil {
					return nil, fmt.Errorf("[%s]: %w", ln.section, err)
				}
			}
		}
	}
}

func applyHeaderTag(rec *Record, ln textLine) {
	switch ln.tag {
	case "Rows":
		if v, ok := scanInt32(ln.value); ok {
			rec.Rows = v
		}
	case "Cols":
		if v, ok := scanInt32(ln.value); ok {
			rec.Cols = v
		}
	case "Algorithm":
		rec.Algorithm = lowerASCII(ln.value)
	case "DatHeader":
		rec.ArrayID = ExtractChipName(ln.raw)
	case "AlgorithmParameters":
		if i := strings.Index(ln.value, cellMarginKey); i >= 0 {
			if v, ok := scanInt32(ln.value[i+len(cellMarginKey):]); ok {
				rec.CellMargin = v
			}
		}
	}
}

// readBlockCount expects the line right after a block header to be
// NumberCells=<n> and consumes an optional CellHeader= line after it.
func readBlockCount(sc *lineScanner, limit int64) (int, error) {
	ln, err := sc.next()
	if err != nil {
		return 0, err
	}
	if ln.kind != lineTag || ln.tag != tagNumberCells {
		return 0, fmt.Errorf("%w: missing %s", ErrStructure, tagNumberCells)
	}
	n, ok := scanInt(ln.value)
	if !ok || n < 0 || n > limit {
		return 0, fmt.Errorf("%w: invalid %s=%s", ErrStructure, tagNumberCells, ln.value)
	}

	peek, err := sc.next()
	if err != nil {
		return 0, err
	}
	switch {
	case peek.kind == lineEOF:
		// Nothing to push back; later reads see end of input again.
	case peek.kind != lineTag || peek.tag != tagCellHeader:
		sc.unread(peek)
	}
	return int(n), nil
}

func skipDataLines(sc *lineScanner, n int) error {
	for i := range n {
		_, eof, err := sc.nextRaw()
		if err != nil {
			return err
		}
		if eof {
			return fmt.Errorf("%w: %d of %d data lines present", ErrReadFailed, i, n)
		}
	}
	return nil
}

// readIntensityLines reads n "<x> <y> <intensity> ..." rows and keeps the intensity.
func readIntensityLines(sc *lineScanner, n int) ([]float32, error) {
	values := make([]float32, n)
	for i := range values {
		line, eof, err := sc.nextRaw()
		if err != nil {
			return nil, err
		}
		if eof {
			return nil, fmt.Errorf("%w: %d of %d data lines present", ErrReadFailed, i, n)
		}
		v, err := parseIntensityLine(line)
		if err != nil {
			return nil, fmt.Errorf("data line %d: %w", i+1, err)
		}
		values[i] = v
	}
	return values, nil
}

func parseIntensityLine(line string) (float32, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return 0, fmt.Errorf("%w: want x y intensity, got %q", ErrStructure, line)
	}
	if _, ok := scanInt(fields[0]); !ok {
		return 0, fmt.Errorf("%w: bad x %q", ErrStructure, fields[0])
	}
	if _, ok := scanInt(fields[1]); !ok {
		return 0, fmt.Errorf("%w: bad y %q", ErrStructure, fields[1])
	}
	v, err := strconv.ParseFloat(fields[2], 32)
	if err != nil {
		return 0, fmt.Errorf("%w: bad intensity %q", ErrStructure, fields[2])
	}
	return float32(v), nil
}
