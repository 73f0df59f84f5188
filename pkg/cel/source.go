package cel

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/sys/unix"
)

// Codec identifies the compression wrapper a CEL file was stored in.
type Codec uint8

const (
	CodecNone Codec = iota
	CodecGzip
	CodecZstd
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecGzip:
		return "gzip"
	case CodecZstd:
		return "zstd"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// maxDecompressed caps the in-memory size of a decompressed CEL file.
// The largest arrays in circulation are a few hundred MiB uncompressed.
const maxDecompressed = 4 << 30

// Source is a seekable, rewindable view over the bytes of one CEL file.
// Plain files are mapped read-only; compressed files are inflated into memory.
// A Source is owned by a single decode at a time and must be closed.
type Source struct {
	name   string
	data   []byte
	off    int64
	codec  Codec
	mapped bool
	closed bool
}

// OpenSource opens path read-only. The returned source must be closed.
func OpenSource(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", ErrOpen, path, err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrOpen, path)
	}
	size64 := st.Size()
	if size64 < 0 || size64 > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%w: %s: unsupported size %d", ErrOpen, path, size64)
	}
	size := int(size64)

	var (
		data   []byte
		mapped bool
	)
	if size > 0 {
		data, err = unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
		if err == nil {
			mapped = true
		} else {
			data, err = readAllAt(f, size)
			if err != nil {
				return nil, fmt.Errorf("%w: read %s: %w", ErrOpen, path, err)
			}
		}
	}

	codec := detectCodec(data)
	if codec == CodecNone {
		return &Source{name: filepath.Base(path), data: data, mapped: mapped}, nil
	}

	plain, err := decompress(codec, data)
	if mapped {
		_ = unix.Munmap(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, path, err)
	}
	return &Source{name: filepath.Base(path), data: plain, codec: codec}, nil
}

// NewSource wraps an in-memory file image. Compressed images are inflated.
func NewSource(name string, data []byte) (*Source, error) {
	codec := detectCodec(data)
	if codec == CodecNone {
		return &Source{name: name, data: data}, nil
	}
	plain, err := decompress(codec, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, name, err)
	}
	return &Source{name: name, data: plain, codec: codec}, nil
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

func detectCodec(data []byte) Codec {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return CodecGzip
	case bytes.HasPrefix(data, zstdMagic):
		return CodecZstd
	default:
		return CodecNone
	}
}

func decompress(codec Codec, data []byte) ([]byte, error) {
	switch codec {
	case CodecGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip header: %w", err)
		}
		defer func() { _ = zr.Close() }()
		out, err := io.ReadAll(io.LimitReader(zr, maxDecompressed+1))
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		if len(out) > maxDecompressed {
			return nil, errors.New("gzip payload too large")
		}
		return out, nil
	case CodecZstd:
		dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecompressed))
		if err != nil {
			return nil, fmt.Errorf("zstd init: %w", err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decode: %w", err)
		}
		return out, nil
	default:
		return data, nil
	}
}

// Name is the base name of the file the source was opened from.
func (s *Source) Name() string { return s.name }

// Size is the number of readable (decompressed) bytes.
func (s *Source) Size() int64 { return int64(len(s.data)) }

// Offset is the current read position.
func (s *Source) Offset() int64 { return s.off }

// Codec reports the compression wrapper the file was stored in.
func (s *Source) Codec() Codec { return s.codec }

// Bytes exposes the full contents. The slice is only valid until Close.
func (s *Source) Bytes() []byte { return s.data }

// ReadExact returns the next n bytes or fails without moving the position.
// The returned slice aliases the source and is only valid until Close.
func (s *Source) ReadExact(n int) ([]byte, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative read length %d at offset %d", ErrReadFailed, n, s.off)
	}
	if s.off > int64(len(s.data)) || int64(n) > int64(len(s.data))-s.off {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d: %w",
			ErrReadFailed, n, s.off, max(int64(len(s.data))-s.off, 0), io.ErrUnexpectedEOF)
	}
	b := s.data[s.off : s.off+int64(n)]
	s.off += int64(n)
	return b, nil
}

// Read implements io.Reader so line-oriented decoders can buffer over a source.
func (s *Source) Read(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if s.off >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.off:])
	s.off += int64(n)
	return n, nil
}

// Seek implements io.Seeker. Seeking past the end is allowed; reads then fail.
func (s *Source) Seek(offset int64, whence int) (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = s.off + offset
	case io.SeekEnd:
		abs = int64(len(s.data)) + offset
	default:
		return 0, fmt.Errorf("%w: invalid whence %d", ErrReadFailed, whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("%w: negative seek position %d", ErrReadFailed, abs)
	}
	s.off = abs
	return abs, nil
}

// Rewind moves the position back to the first byte.
func (s *Source) Rewind() error {
	_, err := s.Seek(0, io.SeekStart)
	return err
}

// Close releases the mapping or buffer. The source is unusable afterwards.
func (s *Source) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true
	data := s.data
	s.data = nil
	s.off = 0
	if s.mapped && data != nil {
		return unix.Munmap(data)
	}
	return nil
}
