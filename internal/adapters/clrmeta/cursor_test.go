package clrmeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/plugpack/internal/adapters/clrmeta/clrmetatest"
	"pgregory.net/rapid"
)

func TestDecodeCompressed(t *testing.T) {
	tests := []struct {
		name  string
		in    []byte
		want  uint32
		wantN int
	}{
		{name: "one byte", in: []byte{0x03}, want: 0x03, wantN: 1},
		{name: "one byte max", in: []byte{0x7F}, want: 0x7F, wantN: 1},
		{name: "two bytes", in: []byte{0x80, 0x80}, want: 0x80, wantN: 2},
		{name: "two bytes max", in: []byte{0xBF, 0xFF}, want: 0x3FFF, wantN: 2},
		{name: "four bytes", in: []byte{0xC0, 0x00, 0x40, 0x00}, want: 0x4000, wantN: 4},
		{name: "four bytes max", in: []byte{0xDF, 0xFF, 0xFF, 0xFF}, want: 0x1FFFFFFF, wantN: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n, err := decodeCompressed(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantN, n)
		})
	}
}

func TestDecodeCompressed_Invalid(t *testing.T) {
	for _, in := range [][]byte{nil, {0x80}, {0xC0, 0x00}, {0xE0, 0, 0, 0}} {
		_, _, err := decodeCompressed(in)
		assert.Error(t, err, "input %x", in)
	}
}

func TestDecodeCompressed_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Uint32Range(0, 0x1FFFFFFF).Draw(t, "v")
		trailing := rapid.SliceOfN(rapid.Byte(), 0, 4).Draw(t, "trailing")

		encoded := clrmetatest.EncodeCompressed(v)
		got, n, err := decodeCompressed(append(encoded, trailing...))
		if err != nil {
			t.Fatalf("decode %x: %v", encoded, err)
		}
		if got != v || n != len(encoded) {
			t.Fatalf("decode %x = (%d, %d), want (%d, %d)", encoded, got, n, v, len(encoded))
		}
	})
}

func TestCursor_CString(t *testing.T) {
	c := &cursor{b: []byte("#~\x00\x00#Strings\x00\x00\x00\x00X")}
	assert.Equal(t, "#~", c.cstring(0))
	assert.Equal(t, 4, c.off)
	assert.Equal(t, "#Strings", c.cstring(4))
	assert.Equal(t, 16, c.off)
	require.NoError(t, c.err)

	c = &cursor{b: []byte("unterminated")}
	assert.Empty(t, c.cstring(0))
	assert.Error(t, c.err)
}

func TestCodedWidth(t *testing.T) {
	tbl := &tables{}
	assert.Equal(t, 2, tbl.codedWidth(typeDefOrRef))

	// TypeDefOrRef spends two bits on the tag, leaving 14 for the row.
	tbl.rows[tTypeRef] = 1<<14 - 1
	assert.Equal(t, 2, tbl.codedWidth(typeDefOrRef))
	tbl.rows[tTypeRef] = 1 << 14
	assert.Equal(t, 4, tbl.codedWidth(typeDefOrRef))

	tbl.rows[tMethodDef] = 1 << 11
	assert.Equal(t, 4, tbl.codedWidth(hasCustomAttribute))
	assert.Equal(t, 2, tbl.codedWidth(customAttributeType))
}

func TestParseTables_RejectsUnknownTable(t *testing.T) {
	b := make([]byte, 24)
	b[8+5] = 0x80 // valid bit 0x2F
	_, err := parseTables(b)
	assert.Error(t, err)
}
