package cel

import "strings"

const (
	chipSuffix    = ".1sq"
	unknownChipID = "unknown"
)

// ExtractChipName finds the library file name embedded in a DAT header:
// the word ending in ".1sq", back to the preceding space.
func ExtractChipName(header string) string {
	end := strings.Index(header, chipSuffix)
	if end < 0 {
		return unknownChipID
	}
	start := strings.LastIndexByte(header[:end], ' ') + 1
	return header[start : end+len(chipSuffix)]
}
