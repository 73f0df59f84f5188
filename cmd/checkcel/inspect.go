package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/checkcel/pkg/cel"
)

func inspectCmd(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Dump the decoded structure of a CEL file",
		ArgsUsage: "FILE",
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return cli.Exit("error: inspect takes exactly one CEL file", 1)
			}
			path := c.Args().First()
			src, err := cel.OpenSource(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() { _ = src.Close() }()

			if err := inspectSource(ctx, &dumper{w: stdout}, src); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			return nil
		},
	}
}

func inspectSource(ctx context.Context, d *dumper, src *cel.Source) error {
	format := cel.Sniff(src)
	d.printf("CEL Inspect: %s\n", src.Name())
	d.printf("Size: %s  format=%s  codec=%s\n", formatBytes(uint64(src.Size())), format, src.Codec())

	if format == cel.FormatCalvin {
		c, err := cel.ReadCalvinContainer(ctx, src)
		if err != nil {
			return err
		}
		printCalvinContainer(d, c)
	}

	rec, err := cel.DecodeSource(ctx, src, true)
	if err != nil {
		return err
	}
	printRecord(d, rec)
	return nil
}

func printCalvinContainer(d *dumper, c *cel.CalvinContainer) {
	h := c.Header
	d.section("Generic Header")
	d.row("data_type", h.DataType)
	d.row("file_id", h.FileID)
	d.row("date", h.Date)
	d.row("locale", h.Locale)
	d.row("groups", fmt.Sprintf("%d (first at %d)", h.GroupCount, h.FirstGroupOffset))

	d.section("Parameters")
	printParameters(d, h.Parameters)

	d.section(fmt.Sprintf("Data Group %q", c.Group.Name))
	d.row("datasets", fmt.Sprintf("%d", c.Group.DatasetCount))
	d.row("first_dataset", fmt.Sprintf("%d", c.Group.FirstDatasetOffset))
	d.row("next_group", fmt.Sprintf("%d", c.Group.NextGroupOffset))

	for i, ds := range c.Datasets {
		d.section(fmt.Sprintf("Dataset [%d] %q", i, ds.Name))
		d.row("rows", fmt.Sprintf("%d", ds.Rows))
		d.row("data", fmt.Sprintf("off=%d next=%d", ds.FirstElementOffset, ds.NextDatasetOffset))
		cols := make([]string, 0, len(ds.Columns))
		for _, col := range ds.Columns {
			cols = append(cols, fmt.Sprintf("%s(type=%d size=%d)", col.Name, col.Type, col.Size))
		}
		d.row("columns", strings.Join(cols, ", "))
		printParameters(d, ds.Parameters)
	}
}

func printParameters(d *dumper, params []cel.Parameter) {
	for _, p := range params {
		d.printf("  %-56s %-34s %s\n", p.Name, p.MIME, p.FormatValue())
	}
}

func printRecord(d *dumper, rec *cel.Record) {
	d.section("Record")
	d.row("format", rec.Format.String())
	d.row("array", rec.ArrayID)
	d.row("algorithm", rec.Algorithm)
	d.row("rows", fmt.Sprintf("%d", rec.Rows))
	d.row("cols", fmt.Sprintf("%d", rec.Cols))
	d.row("cell_margin", fmt.Sprintf("%d", rec.CellMargin))
	d.row("outliers", fmt.Sprintf("%d", rec.Outliers))
	d.row("masked", fmt.Sprintf("%d", rec.Masked))
	if s := rec.Stats; s != nil {
		d.row("intensity", fmt.Sprintf("min=%.0f max=%.0f unique=%d invalid=%d", s.Min, s.Max, s.Unique, s.Invalid))
	}
}

// dumper prints the inspect layout to a fixed writer.
type dumper struct {
	w io.Writer
}

func (d *dumper) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(d.w, format, args...)
}

func (d *dumper) section(title string) {
	line := strings.Repeat("-", len(title)+8)
	d.printf("\n%s\n--- %s ---\n%s\n", line, title, line)
}

func (d *dumper) row(label, value string) {
	if value == "" {
		return
	}
	d.printf("%-24s %s\n", label+":", value)
}

func formatBytes(b uint64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.2f GiB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MiB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KiB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
