package cel

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Digest fingerprints the decoded (decompressed) contents of src, so the same
// array stored plain and gzipped yields the same value.
func Digest(src *Source) string {
	sum := blake3.Sum256(src.Bytes())
	return hex.EncodeToString(sum[:])
}
