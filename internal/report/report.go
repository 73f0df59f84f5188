// Package report renders decoded CEL records, one line per file.
package report

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/samcharles93/checkcel/pkg/cel"
)

// Writer renders one record per call.
type Writer interface {
	Write(rec *cel.Record) error
}

// Options apply to every output format.
type Options struct {
	// Filter drops invalid records instead of reporting them.
	Filter bool
	// RunID tags every JSON line with the invocation that produced it.
	RunID string
}

// Formats lists the accepted output format names.
var Formats = []string{"tsv", "json"}

// New returns a writer for the named format.
func New(format string, w io.Writer, opts Options) (Writer, error) {
	switch format {
	case "", "tsv":
		return &tsvWriter{w: w, opts: opts}, nil
	case "json":
		return newJSONWriter(w, opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want tsv or json)", format)
	}
}

// NewRunID returns a fresh identifier for one checkcel invocation.
func NewRunID() string {
	return uuid.NewString()
}
