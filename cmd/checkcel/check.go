package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/checkcel/internal/logger"
	"github.com/samcharles93/checkcel/internal/report"
	"github.com/samcharles93/checkcel/pkg/cel"
)

const noMatchMessage = "no matching file"

// runCheck expands each argument as a glob and reports every match in
// order. An argument without matches stops the run with exit status 1.
func runCheck(ctx context.Context, stdout io.Writer, args []string, opts *options) error {
	w, err := report.New(opts.output, stdout, report.Options{
		Filter: opts.filter,
		RunID:  report.NewRunID(),
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	log := logger.FromContext(ctx)
	decodeOpts := cel.Options{Intensity: opts.intensity, Digest: opts.digest}

	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return cli.Exit(fmt.Sprintf("error: %s: %v", arg, err), 1)
		}
		if len(matches) == 0 {
			_, _ = fmt.Fprintln(stdout, noMatchMessage)
			return cli.Exit("", 1)
		}
		for _, path := range matches {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec := cel.Decode(ctx, path, decodeOpts)
			if rec.Err != nil {
				log.Debug("invalid CEL file", "file", path, "error", rec.Err)
			} else {
				log.Debug("checked", "file", path, "format", rec.Format.String())
			}
			if err := w.Write(rec); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
		}
	}
	return nil
}
