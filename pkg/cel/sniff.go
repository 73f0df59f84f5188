package cel

import "io"

const (
	calvinMagic    = 59
	calvinVersion  = 1
	calvinDataType = "affymetrix-calvin-intensity"

	binaryMagic   = 64
	binaryVersion = 4

	textSection = "CEL"
	textVersion = "3"
)

// Sniff reports which CEL encoding src holds, testing Calvin, then Binary,
// then Text. It never consumes the source: the read position is the same
// before and after the call.
func Sniff(src *Source) Format {
	pos := src.Offset()
	defer func() { _, _ = src.Seek(pos, io.SeekStart) }()

	probes := []struct {
		format Format
		match  func(*Source) bool
	}{
		{FormatCalvin, isCalvin},
		{FormatBinary, isBinary},
		{FormatText, isText},
	}
	for _, p := range probes {
		if err := src.Rewind(); err != nil {
			return FormatUnknown
		}
		ok := p.match(src)
		if err := src.Rewind(); err != nil {
			return FormatUnknown
		}
		if ok {
			return p.format
		}
	}
	return FormatUnknown
}

func isCalvin(src *Source) bool {
	r := newReader(src, calvinOrder())
	_, err := readCalvinPreamble(r)
	return err == nil
}

func isBinary(src *Source) bool {
	r := newReader(src, binaryOrder())
	return readBinaryPreamble(r) == nil
}

func isText(src *Source) bool {
	sc := newLineScanner(src)
	first, err := sc.next()
	if err != nil || first.kind != lineHeader || first.section != textSection {
		return false
	}
	second, err := sc.next()
	if err != nil || second.kind != lineTag {
		return false
	}
	return second.tag == "Version" && second.value == textVersion
}
