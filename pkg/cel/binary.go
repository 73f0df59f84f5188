package cel

import (
	"context"
	"fmt"
	"math"

	"github.com/samcharles93/checkcel/internal/logger"
)

// binarySpotSize is one packed spot record: intensity f32, sd f32, pixels i16.
const binarySpotSize = 4 + 4 + 2

func readBinaryPreamble(r *reader) error {
	magic, err := r.readI32()
	if err != nil {
		return err
	}
	if magic != binaryMagic {
		return fmt.Errorf("%w: binary magic %d", ErrUnknownFormat, magic)
	}
	version, err := r.readI32()
	if err != nil {
		return err
	}
	if version != binaryVersion {
		return fmt.Errorf("%w: binary version %d", ErrUnknownFormat, version)
	}
	return nil
}

// decodeBinary reads the legacy flat little-endian layout (version 4).
func decodeBinary(ctx context.Context, src *Source, wantIntensity bool) (*Record, error) {
	log := logger.FromContext(ctx).With("format", FormatBinary.String())
	if err := src.Rewind(); err != nil {
		return nil, err
	}
	r := newReader(src, binaryOrder())
	if err := readBinaryPreamble(r); err != nil {
		return nil, fmt.Errorf("preamble: %w", err)
	}

	rec := &Record{Format: FormatBinary}
	var err error
	if rec.Cols, err = r.readI32(); err != nil {
		return nil, fmt.Errorf("read cols: %w", err)
	}
	if rec.Rows, err = r.readI32(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	cells, err := r.readI32()
	if err != nil {
		return nil, fmt.Errorf("read cell count: %w", err)
	}
	if int64(cells) != rec.Cells() {
		return nil, fmt.Errorf("%w: %d cells declared for %dx%d grid", ErrStructure, cells, rec.Rows, rec.Cols)
	}

	header, err := r.readNarrowString()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	rec.ArrayID = ExtractChipName(header)
	log.Debug("binary header", "header", header)

	algorithm, err := r.readNarrowString()
	if err != nil {
		return nil, fmt.Errorf("read algorithm: %w", err)
	}
	rec.Algorithm = lowerASCII(algorithm)
	log.Debug("binary algorithm", "algorithm", rec.Algorithm)

	params, err := r.readNarrowString()
	if err != nil {
		return nil, fmt.Errorf("read parameters: %w", err)
	}
	log.Debug("binary parameters", "parameters", params)

	if rec.CellMargin, err = r.readI32(); err != nil {
		return nil, fmt.Errorf("read cell margin: %w", err)
	}
	if rec.Outliers, err = r.readU32(); err != nil {
		return nil, fmt.Errorf("read outlier count: %w", err)
	}
	if rec.Masked, err = r.readU32(); err != nil {
		return nil, fmt.Errorf("read masked count: %w", err)
	}
	subgrids, err := r.readI32()
	if err != nil {
		return nil, fmt.Errorf("read subgrid count: %w", err)
	}
	log.Debug("binary counts", "outliers", rec.Outliers, "masked", rec.Masked, "subgrids", subgrids)

	if wantIntensity {
		values, err := readBinarySpots(r, cells)
		if err != nil {
			return nil, fmt.Errorf("read spots: %w", err)
		}
		stats := ComputeIntensityStats(values)
		rec.Stats = &stats
	}
	return rec, nil
}

// readBinarySpots reads cells packed spot records and keeps only the intensity.
func readBinarySpots(r *reader, cells int32) ([]float32, error) {
	if cells < 0 || int64(cells) > math.MaxInt/binarySpotSize {
		return nil, fmt.Errorf("%w: cell count %d", ErrStructure, cells)
	}
	b, err := r.readN(int(cells) * binarySpotSize)
	if err != nil {
		return nil, err
	}
	values := make([]float32, cells)
	for i := range values {
		values[i] = math.Float32frombits(r.bo.order.Uint32(b[i*binarySpotSize:]))
	}
	return values, nil
}
