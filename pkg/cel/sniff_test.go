package cel

import (
	"encoding/binary"
	"strings"
	"testing"
)

func TestSniff(t *testing.T) {
	t.Parallel()

	badCalvin := defaultCalvinFixture()
	badCalvin.dataType = "affymetrix-calvin-multi-intensity"

	badBinary := &encoder{order: binary.LittleEndian}
	badBinary.i32(binaryMagic)
	badBinary.i32(3)

	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"binary", defaultBinaryFixture().encode(), FormatBinary},
		{"calvin", defaultCalvinFixture().encode(), FormatCalvin},
		{"text", []byte(defaultTextFile()), FormatText},
		{"text lf only", []byte("[CEL]\nVersion=3\n"), FormatText},
		{"text version 4", []byte("[CEL]\nVersion=4\n"), FormatUnknown},
		{"text lower case section", []byte("[cel]\nVersion=3\n"), FormatUnknown},
		{"text unterminated section", []byte("[CEL\nVersion=3\n"), FormatUnknown},
		{"calvin other data type", badCalvin.encode(), FormatUnknown},
		{"binary version 3", badBinary.buf.Bytes(), FormatUnknown},
		{"empty", nil, FormatUnknown},
		{"garbage", []byte(strings.Repeat("\x00\xff", 64)), FormatUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Sniff(mustSource(t, tc.data)); got != tc.want {
				t.Fatalf("Sniff = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestSniffRestoresPosition(t *testing.T) {
	t.Parallel()

	src := mustSource(t, defaultCalvinFixture().encode())
	if _, err := src.ReadExact(5); err != nil {
		t.Fatalf("ReadExact: %v", err)
	}
	first := Sniff(src)
	if src.Offset() != 5 {
		t.Fatalf("Sniff moved offset to %d", src.Offset())
	}
	if second := Sniff(src); second != first || first != FormatCalvin {
		t.Fatalf("Sniff not idempotent: %s then %s", first, second)
	}
}
