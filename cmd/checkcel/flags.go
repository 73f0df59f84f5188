package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/checkcel/internal/report"
)

type options struct {
	intensity bool
	filter    bool
	output    string
	digest    bool
	logLevel  string
	logFormat string
}

func checkFlags(opts *options) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "intensity",
			Aliases:     []string{"c"},
			Usage:       "calculate and display intensity statistics",
			Destination: &opts.intensity,
		},
		&cli.BoolFlag{
			Name:        "filter",
			Aliases:     []string{"f"},
			Usage:       "filter out invalid CEL files",
			Destination: &opts.filter,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "report format (" + strings.Join(report.Formats, ", ") + ")",
			Value:       "tsv",
			Destination: &opts.output,
			Validator: func(s string) error {
				for _, f := range report.Formats {
					if s == f {
						return nil
					}
				}
				return fmt.Errorf("unknown output format %q", s)
			},
		},
		&cli.BoolFlag{
			Name:        "digest",
			Usage:       "append a BLAKE3 digest of each file's contents",
			Destination: &opts.digest,
		},
	}
}

func loggingFlags(opts *options) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "warn",
			Destination: &opts.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &opts.logFormat,
		},
	}
}
