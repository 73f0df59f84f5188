package cel

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fixtureOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// encoder writes primitives in a fixed byte order for building fixtures.
type encoder struct {
	buf   bytes.Buffer
	order fixtureOrder
}

func (e *encoder) u8(v uint8)    { e.buf.WriteByte(v) }
func (e *encoder) i8(v int8)     { e.buf.WriteByte(byte(v)) }
func (e *encoder) i16(v int16)   { e.buf.Write(e.order.AppendUint16(nil, uint16(v))) }
func (e *encoder) i32(v int32)   { e.buf.Write(e.order.AppendUint32(nil, uint32(v))) }
func (e *encoder) u32(v uint32)  { e.buf.Write(e.order.AppendUint32(nil, v)) }
func (e *encoder) f32(v float32) { e.u32(math.Float32bits(v)) }
func (e *encoder) raw(b []byte)  { e.buf.Write(b) }
func (e *encoder) pos() uint32   { return uint32(e.buf.Len()) }

func (e *encoder) narrow(s string) {
	e.i32(int32(len(s)))
	e.buf.WriteString(s)
}

func (e *encoder) wide(s string) {
	e.i32(int32(len(s)))
	e.raw(wideBytes(s, len(s)))
}

func (e *encoder) patchU32(at, v uint32) {
	e.order.PutUint32(e.buf.Bytes()[at:], v)
}

// wideBytes encodes s as big-endian 2-byte units padded with NUL units to n.
func wideBytes(s string, n int) []byte {
	out := make([]byte, 2*n)
	for i := 0; i < len(s) && i < n; i++ {
		out[2*i+1] = s[i]
	}
	return out
}

type binaryFixture struct {
	rows, cols  int32
	cells       int32 // zero means rows*cols
	header      string
	algorithm   string
	parameters  string
	cellMargin  int32
	outliers    uint32
	masked      uint32
	intensities []float32 // len must be cells when set
}

func defaultBinaryFixture() binaryFixture {
	return binaryFixture{
		rows:       2,
		cols:       3,
		header:     "[0..46101]  HG-U133A:CLS=4733 RWS=4733 XIN=3 YIN=3 VE=17 2.0 04/04/03 12:01:23 GridVerify=None  HG-U133A.1sq  6",
		algorithm:  "Percentile",
		parameters: "Percentile:75;CellMargin:2;OutlierHigh:1.500;OutlierLow:1.004",
		cellMargin: 2,
		outliers:   1,
		masked:     4,
		intensities: []float32{
			100, 100, 250.4, 65535, -3, 0,
		},
	}
}

func (f binaryFixture) encode() []byte {
	e := &encoder{order: binary.LittleEndian}
	cells := f.cells
	if cells == 0 {
		cells = f.rows * f.cols
	}
	e.i32(binaryMagic)
	e.i32(binaryVersion)
	e.i32(f.cols)
	e.i32(f.rows)
	e.i32(cells)
	e.narrow(f.header)
	e.narrow(f.algorithm)
	e.narrow(f.parameters)
	e.i32(f.cellMargin)
	e.u32(f.outliers)
	e.u32(f.masked)
	e.i32(0)
	for i, v := range f.intensities {
		e.f32(v)
		e.f32(float32(i) * 0.5)
		e.i16(16)
	}
	return e.buf.Bytes()
}

type calvinParam struct {
	name  string
	value []byte
	mime  string
}

func textParam(name, value string, width int) calvinParam {
	return calvinParam{name: name, value: wideBytes(value, width), mime: "text/plain"}
}

func int32Param(name string, v int32) calvinParam {
	return calvinParam{name: name, value: binary.BigEndian.AppendUint32(nil, uint32(v)), mime: "text/x-calvin-integer-32"}
}

type calvinDataset struct {
	name    string
	params  []calvinParam
	columns []Column
	rows    uint32
	data    []byte
	gap     int // junk bytes written before this dataset header
}

type calvinFixture struct {
	dataType string
	fileID   string
	date     string
	locale   string
	params   []calvinParam
	group    string
	datasets []calvinDataset
}

func defaultCalvinFixture() calvinFixture {
	intensities := []float32{100, 100, 250.4, 70000, 0, 42}
	data := &encoder{order: binary.BigEndian}
	for _, v := range intensities {
		data.f32(v)
	}
	return calvinFixture{
		dataType: calvinDataType,
		fileID:   "0000065535-1152721734-0000016153-0000021059-0000002513",
		date:     "2006-07-12T10:28:54Z",
		locale:   "en-US",
		params: []calvinParam{
			textParam(paramArrayType, "HG-U133_Plus_2", 32),
			textParam(paramAlgorithm, "Percentile", 32),
			int32Param(paramRows, 2),
			int32Param(paramCols, 3),
			int32Param(paramCellMargin, 2),
			{name: "affymetrix-scan-date", value: []byte("opaque"), mime: "application/x-unknown"},
		},
		group: "Default Group",
		datasets: []calvinDataset{
			{
				name:    datasetIntensity,
				columns: []Column{{Name: "Intensity", Type: 6, Size: 4}},
				rows:    uint32(len(intensities)),
				data:    data.buf.Bytes(),
			},
			{
				name:    "StdDev",
				columns: []Column{{Name: "StdDev", Type: 6, Size: 4}},
				rows:    0,
			},
			{
				name:    datasetOutlier,
				params:  []calvinParam{int32Param("note", 1)},
				columns: []Column{{Name: "X", Type: 2, Size: 2}, {Name: "Y", Type: 2, Size: 2}},
				rows:    3,
				data:    make([]byte, 12),
				gap:     7,
			},
			{
				name:    datasetMask,
				columns: []Column{{Name: "X", Type: 2, Size: 2}, {Name: "Y", Type: 2, Size: 2}},
				rows:    5,
				data:    make([]byte, 20),
			},
		},
	}
}

func (e *encoder) param(p calvinParam) {
	e.wide(p.name)
	e.i32(int32(len(p.value)))
	e.raw(p.value)
	e.wide(p.mime)
}

func (f calvinFixture) encode() []byte {
	e := &encoder{order: binary.BigEndian}
	e.u8(calvinMagic)
	e.u8(calvinVersion)
	e.i32(1)
	groupOffsetAt := e.pos()
	e.u32(0)
	e.narrow(f.dataType)
	e.narrow(f.fileID)
	e.wide(f.date)
	// The locale length is always read byte swapped relative to the host.
	e.raw(newByteOrder(true).order.(fixtureOrder).AppendUint32(nil, uint32(len(f.locale))))
	e.raw(wideBytes(f.locale, len(f.locale)))
	e.i32(int32(len(f.params)))
	for _, p := range f.params {
		e.param(p)
	}

	e.patchU32(groupOffsetAt, e.pos())
	e.u32(0)
	firstDatasetAt := e.pos()
	e.u32(0)
	e.i32(int32(len(f.datasets)))
	e.wide(f.group)

	var prevNextAt uint32
	for i, ds := range f.datasets {
		e.raw(bytes.Repeat([]byte{0xee}, ds.gap))
		start := e.pos()
		if i == 0 {
			e.patchU32(firstDatasetAt, start)
		} else {
			e.patchU32(prevNextAt, start)
		}
		firstElemAt := e.pos()
		e.u32(0)
		prevNextAt = e.pos()
		e.u32(0)
		e.wide(ds.name)
		e.i32(int32(len(ds.params)))
		for _, p := range ds.params {
			e.param(p)
		}
		e.u32(uint32(len(ds.columns)))
		for _, c := range ds.columns {
			e.wide(c.Name)
			e.i8(c.Type)
			e.i32(c.Size)
		}
		e.u32(ds.rows)
		e.patchU32(firstElemAt, e.pos())
		e.raw(ds.data)
	}
	if len(f.datasets) > 0 {
		e.patchU32(prevNextAt, e.pos())
	}
	return e.buf.Bytes()
}

func defaultTextFile() string {
	lines := []string{
		"[CEL]",
		"Version=3",
		"",
		"[HEADER]",
		"Cols=3",
		"Rows=2",
		"TotalX=3",
		"TotalY=2",
		"Axis-invertX=0",
		"DatHeader=[0..46101]  HG-U133A:CLS=4733 RWS=4733 XIN=3 YIN=3  VE=17 2.0 04/04/03 GridVerify=None  HG-U133A.1sq  6",
		"Algorithm=Percentile",
		"AlgorithmParameters=Percentile:75;CellMargin:2;OutlierHigh:1.500;OutlierLow:1.004",
		"",
		"[INTENSITY]",
		"NumberCells=6",
		"CellHeader=X\tY\tMEAN\tSTDV\tNPIXELS",
		"  0\t  0\t100.0\t10.1\t 16",
		"  1\t  0\t100.0\t10.1\t 16",
		"  2\t  0\t250.4\t10.1\t 16",
		"  0\t  1\t-1.0\t10.1\t 16",
		"  1\t  1\t0.0\t10.1\t 16",
		"  2\t  1\t65536.0\t10.1\t 16",
		"",
		"[MASKS]",
		"NumberCells=2",
		"CellHeader=X\tY",
		"0\t0",
		"1\t1",
		"",
		"[OUTLIERS]",
		"NumberCells=1",
		"CellHeader=X\tY",
		"2\t1",
		"",
		"[MODIFIED]",
		"NumberCells=0",
		"CellHeader=X\tY\tORIGMEAN",
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}

func mustSource(t *testing.T, data []byte) *Source {
	t.Helper()
	src, err := NewSource("fixture.CEL", data)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func assertStats(t *testing.T, got *IntensityStats, want IntensityStats) {
	t.Helper()
	if got == nil {
		t.Fatalf("missing intensity stats, want %+v", want)
	}
	if *got != want {
		t.Fatalf("stats mismatch: got %+v want %+v", *got, want)
	}
}

func describe(rec *Record) string {
	return fmt.Sprintf("%+v", *rec)
}
