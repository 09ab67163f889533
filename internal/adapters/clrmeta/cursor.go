package clrmeta

import (
	"encoding/binary"

	"go.trai.ch/plugpack/internal/core/domain"
	"go.trai.ch/zerr"
)

// cursor reads little-endian values and records the first overrun.
type cursor struct {
	b   []byte
	off int
	err error
}

func (c *cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.off+n > len(c.b) {
		c.err = zerr.With(zerr.New(domain.ErrMetadataCorrupt.Error()), "offset", c.off)
		return nil
	}
	p := c.b[c.off : c.off+n]
	c.off += n
	return p
}

func (c *cursor) u8() uint8 {
	if p := c.take(1); p != nil {
		return p[0]
	}
	return 0
}

func (c *cursor) u16() uint16 {
	if p := c.take(2); p != nil {
		return binary.LittleEndian.Uint16(p)
	}
	return 0
}

func (c *cursor) u32() uint32 {
	if p := c.take(4); p != nil {
		return binary.LittleEndian.Uint32(p)
	}
	return 0
}

func (c *cursor) u64() uint64 {
	if p := c.take(8); p != nil {
		return binary.LittleEndian.Uint64(p)
	}
	return 0
}

// cstring reads a NUL-terminated string and then skips to the next 4-byte boundary
// measured from start.
func (c *cursor) cstring(start int) string {
	if c.err != nil {
		return ""
	}
	end := c.off
	for end < len(c.b) && c.b[end] != 0 {
		end++
	}
	if end >= len(c.b) {
		c.err = zerr.With(zerr.New(domain.ErrMetadataCorrupt.Error()), "offset", c.off)
		return ""
	}
	s := string(c.b[c.off:end])
	c.off = start + align4(end+1-start)
	return s
}

func align4(n int) int {
	return (n + 3) &^ 3
}

// decodeCompressed reads an ECMA-335 compressed unsigned integer.
func decodeCompressed(b []byte) (value uint32, n int, err error) {
	if len(b) == 0 {
		return 0, 0, zerr.New(domain.ErrMetadataCorrupt.Error())
	}
	switch {
	case b[0]&0x80 == 0:
		return uint32(b[0]), 1, nil
	case b[0]&0xC0 == 0x80:
		if len(b) < 2 {
			return 0, 0, zerr.New(domain.ErrMetadataCorrupt.Error())
		}
		return uint32(b[0]&0x3F)<<8 | uint32(b[1]), 2, nil
	case b[0]&0xE0 == 0xC0:
		if len(b) < 4 {
			return 0, 0, zerr.New(domain.ErrMetadataCorrupt.Error())
		}
		return uint32(b[0]&0x1F)<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), 4, nil
	default:
		return 0, 0, zerr.With(zerr.New(domain.ErrMetadataCorrupt.Error()), "lead_byte", b[0])
	}
}
