// Package cel validates Affymetrix CEL files and extracts their metadata.
//
// Three incompatible encodings are recognised: the legacy binary layout
// (version 4), the Calvin generic data container and the version 3 text
// format. Each decode yields a Record; invalid files produce a Record with
// Valid unset rather than an error.
package cel

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/samcharles93/checkcel/internal/logger"
)

// Options controls what a decode computes beyond the header fields.
type Options struct {
	// Intensity reads every spot and fills Record.Stats.
	Intensity bool
	// Digest fills Record.Digest with a BLAKE3 fingerprint of the contents.
	Digest bool
}

type decodeFunc func(context.Context, *Source, bool) (*Record, error)

var decoders = map[Format]decodeFunc{
	FormatBinary: decodeBinary,
	FormatCalvin: decodeCalvin,
	FormatText:   decodeText,
}

// Decode opens, sniffs and decodes the CEL file at path. It never fails:
// problems are reported through an invalid Record whose Err says why.
// The file is closed before Decode returns.
func Decode(ctx context.Context, path string, opts Options) *Record {
	log := logger.FromContext(ctx).With("file", path)

	src, err := OpenSource(path)
	if err != nil {
		log.Debug("open failed", "error", err)
		return invalid(filepath.Base(path), err)
	}
	defer func() { _ = src.Close() }()

	var digest string
	if opts.Digest {
		digest = Digest(src)
	}
	rec, err := DecodeSource(logger.WithContext(ctx, log), src, opts.Intensity)
	if err != nil {
		log.Debug("decode failed", "error", err)
		rec = invalid(src.Name(), err)
		rec.Codec = src.Codec()
	}
	rec.Digest = digest
	return rec
}

// DecodeSource sniffs src and runs the matching decoder. On failure no
// partial record is returned.
func DecodeSource(ctx context.Context, src *Source, wantIntensity bool) (*Record, error) {
	format := Sniff(src)
	decode, ok := decoders[format]
	if !ok {
		return nil, fmt.Errorf("%s: %w", src.Name(), ErrUnknownFormat)
	}
	logger.FromContext(ctx).Debug("sniffed", "format", format.String(), "codec", src.Codec().String())

	rec, err := decode(ctx, src, wantIntensity)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", src.Name(), format, err)
	}
	if rec.Rows < 0 || rec.Cols < 0 {
		return nil, fmt.Errorf("%s: %s: %w: negative grid %dx%d", src.Name(), format, ErrStructure, rec.Rows, rec.Cols)
	}
	rec.Name = src.Name()
	rec.Format = format
	rec.Codec = src.Codec()
	rec.Valid = true
	return rec, nil
}
