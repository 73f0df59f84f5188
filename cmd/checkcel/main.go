package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/checkcel/internal/logger"
	"github.com/samcharles93/checkcel/internal/version"
)

func main() {
	err := newApp(os.Stdout, os.Stderr).Run(context.Background(), os.Args)
	if err == nil {
		return
	}
	code := 1
	var exit cli.ExitCoder
	if errors.As(err, &exit) {
		code = exit.ExitCode()
	}
	if msg := err.Error(); msg != "" {
		_, _ = fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(code)
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	opts := &options{}
	return &cli.Command{
		Name:                   "checkcel",
		Usage:                  "Check the validity of Affymetrix CEL files",
		UsageText:              "checkcel [-cf] [--output tsv|json] [--digest] file [...]",
		Version:                version.String(),
		UseShortOptionHandling: true,
		Writer:                 stdout,
		ErrWriter:              stderr,
		// main owns the exit code so tests can run the app in-process.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Flags:          append(checkFlags(opts), loggingFlags(opts)...),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			applyConfig(cmd, LoadConfig(), opts)
			log, err := logger.Setup(stderr, opts.logLevel, opts.logFormat)
			if err != nil {
				return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			return logger.WithContext(ctx, log), nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return cli.ShowAppHelp(cmd)
			}
			return runCheck(ctx, stdout, cmd.Args().Slice(), opts)
		},
		Commands: []*cli.Command{
			inspectCmd(stdout),
			versionCmd(stdout),
		},
	}
}
