package cel

import (
	"context"
	"fmt"
)

// Well-known Calvin parameter and dataset names. Matching is case sensitive.
const (
	paramArrayType  = "affymetrix-array-type"
	paramAlgorithm  = "affymetrix-algorithm-param-CellIntensityCalculationType"
	paramRows       = "affymetrix-cel-rows"
	paramCols       = "affymetrix-cel-cols"
	paramCellMargin = "affymetrix-algorithm-param-CellMargin"

	datasetIntensity = "Intensity"
	datasetOutlier   = "Outlier"
	datasetMask      = "Mask"
)

// decodeCalvin reads a Calvin generic container holding CEL intensity data.
func decodeCalvin(ctx context.Context, src *Source, wantIntensity bool) (*Record, error) {
	if err := src.Rewind(); err != nil {
		return nil, err
	}
	r := newReader(src, calvinOrder())
	c, err := readCalvinContainer(ctx, r)
	if err != nil {
		return nil, err
	}

	rec := &Record{Format: FormatCalvin}
	for _, p := range c.Header.Parameters {
		if err := applyCalvinParameter(rec, p); err != nil {
			return nil, err
		}
	}

	for _, ds := range c.Datasets {
		switch ds.Name {
		case datasetOutlier:
			rec.Outliers = ds.Rows
		case datasetMask:
			rec.Masked = ds.Rows
		case datasetIntensity:
			if !wantIntensity {
				continue
			}
			if err := r.seek(int64(ds.FirstElementOffset)); err != nil {
				return nil, err
			}
			values, err := r.readF32s(int(ds.Rows))
			if err != nil {
				return nil, fmt.Errorf("dataset %s: %w", ds.Name, err)
			}
			stats := ComputeIntensityStats(values)
			rec.Stats = &stats
		}
	}
	return rec, nil
}

func applyCalvinParameter(rec *Record, p Parameter) error {
	var err error
	switch p.Name {
	case paramArrayType:
		rec.ArrayID = p.Text()
	case paramAlgorithm:
		rec.Algorithm = lowerASCII(p.Text())
	case paramRows:
		rec.Rows, err = p.Int32()
	case paramCols:
		rec.Cols, err = p.Int32()
	case paramCellMargin:
		rec.CellMargin, err = p.Int32()
	}
	if err != nil {
		return fmt.Errorf("parameter %s: %w", p.Name, err)
	}
	return nil
}
