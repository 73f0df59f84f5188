package cel

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxTextLine bounds a single text CEL line. DatHeader lines are the longest
// in practice and stay well under this.
const maxTextLine = 1 << 20

type lineKind uint8

const (
	lineUnknown lineKind = iota
	lineHeader
	lineTag
	lineEOF
)

type textLine struct {
	kind    lineKind
	raw     string
	section string // header lines
	tag     string // tag lines
	value   string // first token after '='
}

// lineScanner classifies text CEL lines and remembers the last section seen.
type lineScanner struct {
	sc      *bufio.Scanner
	section string
	pending *textLine
}

func newLineScanner(r io.Reader) *lineScanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxTextLine)
	return &lineScanner{sc: sc}
}

// next returns the next classified line. End of input is a lineEOF line, not an error.
func (s *lineScanner) next() (textLine, error) {
	if s.pending != nil {
		ln := *s.pending
		s.pending = nil
		return ln, nil
	}
	raw, err := s.scan()
	if err != nil {
		return textLine{}, err
	}
	if raw == nil {
		return textLine{kind: lineEOF}, nil
	}
	ln := classifyLine(*raw)
	if ln.kind == lineHeader {
		s.section = ln.section
	}
	return ln, nil
}

// nextRaw returns the next line without classifying it, for data rows.
// eof is true once the input is exhausted.
func (s *lineScanner) nextRaw() (line string, eof bool, err error) {
	if s.pending != nil {
		ln := *s.pending
		s.pending = nil
		if ln.kind == lineEOF {
			return "", true, nil
		}
		return ln.raw, false, nil
	}
	ln, err := s.scan()
	if err != nil {
		return "", false, err
	}
	if ln == nil {
		return "", true, nil
	}
	return *ln, false, nil
}

func (s *lineScanner) scan() (*string, error) {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				return nil, fmt.Errorf("%w: line longer than %d bytes", ErrStructure, maxTextLine)
			}
			return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
		}
		return nil, nil
	}
	line := strings.TrimSuffix(s.sc.Text(), "\r")
	return &line, nil
}

// unread pushes ln back so the following next call returns it again.
func (s *lineScanner) unread(ln textLine) {
	s.pending = &ln
}

func classifyLine(raw string) textLine {
	if section, ok := parseSectionHeader(raw); ok {
		return textLine{kind: lineHeader, raw: raw, section: section}
	}
	if i := strings.IndexByte(raw, '='); i > 0 {
		if fields := strings.Fields(raw[i+1:]); len(fields) > 0 {
			return textLine{kind: lineTag, raw: raw, tag: raw[:i], value: fields[0]}
		}
	}
	return textLine{kind: lineUnknown, raw: raw}
}

// parseSectionHeader matches "[NAME]" where NAME is one or more of A-Z.
// Anything after the closing bracket is ignored.
func parseSectionHeader(raw string) (string, bool) {
	if len(raw) < 3 || raw[0] != '[' {
		return "", false
	}
	end := 1
	for end < len(raw) && raw[end] >= 'A' && raw[end] <= 'Z' {
		end++
	}
	if end == 1 || end >= len(raw) || raw[end] != ']' {
		return "", false
	}
	return raw[1:end], true
}

// scanInt parses the leading decimal integer of s after optional
// whitespace, ignoring trailing text.
func scanInt(s string) (int64, bool) {
	s = strings.TrimLeft(s, " \t\r\n\v\f")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	var v int64
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		v = v*10 + int64(s[i]-'0')
		if v > 1<<32 {
			return 0, false
		}
		i++
	}
	if i == start {
		return 0, false
	}
	if s[0] == '-' {
		v = -v
	}
	return v, true
}

func scanInt32(s string) (int32, bool) {
	v, ok := scanInt(s)
	if !ok || v < -1<<31 || v > 1<<31-1 {
		return 0, false
	}
	return int32(v), true
}
