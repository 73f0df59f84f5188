package cel

import (
	"context"
	"fmt"

	"github.com/samcharles93/checkcel/internal/logger"
)

// Smallest encodings, used to reject counts the remaining bytes cannot hold.
const (
	minParameterSize = 4 + 4 + 4
	minColumnSize    = 4 + 1 + 4
	minDatasetSize   = 4 + 4 + 4 + 4 + 4 + 4
)

// CalvinHeader is the generic file header that precedes the data groups.
type CalvinHeader struct {
	GroupCount       int32
	FirstGroupOffset uint32
	DataType         string
	FileID           string
	Date             string
	Locale           string
	Parameters       []Parameter
}

// DataGroup is a named collection of datasets.
type DataGroup struct {
	Name               string
	NextGroupOffset    uint32
	FirstDatasetOffset uint32
	DatasetCount       int32
}

// Column describes one typed column of a dataset.
type Column struct {
	Name string
	Type int8
	Size int32
}

// Dataset is a dataset header; its rows start at FirstElementOffset.
type Dataset struct {
	Name               string
	Parameters         []Parameter
	Columns            []Column
	Rows               uint32
	FirstElementOffset uint32
	NextDatasetOffset  uint32
}

// CalvinContainer is the decoded header, first data group and its dataset
// headers. Datasets are listed in file order, following the stored offsets.
type CalvinContainer struct {
	Header   CalvinHeader
	Group    DataGroup
	Datasets []Dataset
}

// Dataset returns the first dataset with the given name.
func (c *CalvinContainer) Dataset(name string) (Dataset, bool) {
	for _, ds := range c.Datasets {
		if ds.Name == name {
			return ds, true
		}
	}
	return Dataset{}, false
}

// ReadCalvinContainer decodes the container structure of a Calvin CEL source.
func ReadCalvinContainer(ctx context.Context, src *Source) (*CalvinContainer, error) {
	if err := src.Rewind(); err != nil {
		return nil, err
	}
	return readCalvinContainer(ctx, newReader(src, calvinOrder()))
}

type calvinPreamble struct {
	groupCount       int32
	firstGroupOffset uint32
	dataType         string
}

func readCalvinPreamble(r *reader) (calvinPreamble, error) {
	var p calvinPreamble
	magic, err := r.readU8()
	if err != nil {
		return p, err
	}
	if magic != calvinMagic {
		return p, fmt.Errorf("%w: calvin magic %d", ErrUnknownFormat, magic)
	}
	version, err := r.readU8()
	if err != nil {
		return p, err
	}
	if version != calvinVersion {
		return p, fmt.Errorf("%w: calvin version %d", ErrUnknownFormat, version)
	}
	if p.groupCount, err = r.readI32(); err != nil {
		return p, err
	}
	if p.firstGroupOffset, err = r.readU32(); err != nil {
		return p, err
	}
	if p.dataType, err = r.readNarrowString(); err != nil {
		return p, err
	}
	if p.dataType != calvinDataType {
		return p, fmt.Errorf("%w: calvin data type %q", ErrUnknownFormat, p.dataType)
	}
	return p, nil
}

func readCalvinContainer(ctx context.Context, r *reader) (*CalvinContainer, error) {
	log := logger.FromContext(ctx).With("format", FormatCalvin.String())

	pre, err := readCalvinPreamble(r)
	if err != nil {
		return nil, fmt.Errorf("preamble: %w", err)
	}
	c := &CalvinContainer{Header: CalvinHeader{
		GroupCount:       pre.groupCount,
		FirstGroupOffset: pre.firstGroupOffset,
		DataType:         pre.dataType,
	}}
	h := &c.Header

	if h.FileID, err = r.readNarrowString(); err != nil {
		return nil, fmt.Errorf("file id: %w", err)
	}
	if h.Date, err = r.readWideString(); err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}
	// The locale length is always byte swapped, whatever the host.
	if h.Locale, err = r.withOrder(newByteOrder(true)).readWideString(); err != nil {
		return nil, fmt.Errorf("locale: %w", err)
	}
	log.Debug("calvin header", "file_id", h.FileID, "date", h.Date, "locale", h.Locale)

	count, err := r.readI32()
	if err != nil {
		return nil, fmt.Errorf("parameter count: %w", err)
	}
	if h.Parameters, err = readParameters(r, count); err != nil {
		return nil, err
	}
	for _, p := range h.Parameters {
		log.Debug("calvin parameter", "name", p.Name, "type", p.Type.String(), "value", p.FormatValue())
	}

	if err := r.seek(int64(h.FirstGroupOffset)); err != nil {
		return nil, err
	}
	if c.Group, err = readDataGroup(r); err != nil {
		return nil, fmt.Errorf("data group: %w", err)
	}
	log.Debug("calvin data group", "name", c.Group.Name, "datasets", c.Group.DatasetCount)

	// Datasets may sit anywhere in the file, so bound the count by its total size.
	if n := int64(c.Group.DatasetCount); n < 0 || n > r.src.Size()/minDatasetSize {
		return nil, fmt.Errorf("%w: dataset count %d", ErrStructure, n)
	}
	if err := r.seek(int64(c.Group.FirstDatasetOffset)); err != nil {
		return nil, err
	}
	c.Datasets = make([]Dataset, 0, c.Group.DatasetCount)
	for i := range c.Group.DatasetCount {
		ds, err := readDataset(r)
		if err != nil {
			return nil, fmt.Errorf("dataset %d: %w", i, err)
		}
		log.Debug("calvin dataset", "index", i, "name", ds.Name,
			"parameters", len(ds.Parameters), "columns", len(ds.Columns), "rows", ds.Rows)
		c.Datasets = append(c.Datasets, ds)
		if err := r.seek(int64(ds.NextDatasetOffset)); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func readDataGroup(r *reader) (DataGroup, error) {
	var (
		g   DataGroup
		err error
	)
	if g.NextGroupOffset, err = r.readU32(); err != nil {
		return g, err
	}
	if g.FirstDatasetOffset, err = r.readU32(); err != nil {
		return g, err
	}
	if g.DatasetCount, err = r.readI32(); err != nil {
		return g, err
	}
	if g.Name, err = r.readWideString(); err != nil {
		return g, err
	}
	return g, nil
}

func readDataset(r *reader) (Dataset, error) {
	var (
		ds  Dataset
		err error
	)
	if ds.FirstElementOffset, err = r.readU32(); err != nil {
		return ds, err
	}
	if ds.NextDatasetOffset, err = r.readU32(); err != nil {
		return ds, err
	}
	if ds.Name, err = r.readWideString(); err != nil {
		return ds, err
	}
	count, err := r.readI32()
	if err != nil {
		return ds, fmt.Errorf("%s: parameter count: %w", ds.Name, err)
	}
	if ds.Parameters, err = readParameters(r, count); err != nil {
		return ds, fmt.Errorf("%s: %w", ds.Name, err)
	}
	columns, err := r.readU32()
	if err != nil {
		return ds, fmt.Errorf("%s: column count: %w", ds.Name, err)
	}
	if err := checkCount(r, int64(columns), minColumnSize); err != nil {
		return ds, fmt.Errorf("%s: column count: %w", ds.Name, err)
	}
	ds.Columns = make([]Column, 0, columns)
	for i := range columns {
		col, err := readColumn(r)
		if err != nil {
			return ds, fmt.Errorf("%s: column %d: %w", ds.Name, i, err)
		}
		ds.Columns = append(ds.Columns, col)
	}
	if ds.Rows, err = r.readU32(); err != nil {
		return ds, fmt.Errorf("%s: row count: %w", ds.Name, err)
	}
	return ds, nil
}

func readColumn(r *reader) (Column, error) {
	var (
		col Column
		err error
	)
	if col.Name, err = r.readWideString(); err != nil {
		return col, err
	}
	if col.Type, err = r.readI8(); err != nil {
		return col, err
	}
	if col.Size, err = r.readI32(); err != nil {
		return col, err
	}
	return col, nil
}

// checkCount rejects negative counts and counts whose smallest encoding
// would not fit in the bytes left in the source.
func checkCount(r *reader, count, minSize int64) error {
	if count < 0 {
		return fmt.Errorf("%w: negative count %d", ErrStructure, count)
	}
	remaining := r.src.Size() - r.src.Offset()
	if remaining < 0 || count > remaining/minSize {
		return fmt.Errorf("%w: count %d exceeds remaining %d bytes", ErrStructure, count, max(remaining, 0))
	}
	return nil
}
