package clrmeta

import (
	"go.trai.ch/plugpack/internal/core/domain"
	"go.trai.ch/zerr"
)

const metadataSignature = 0x424A5342 // "BSJB"

// metadata is a decoded CLI metadata block.
type metadata struct {
	tables  *tables
	strings []byte
	blobs   []byte
}

func parseMetadata(b []byte) (*metadata, error) {
	c := &cursor{b: b}
	if sig := c.u32(); c.err == nil && sig != metadataSignature {
		return nil, zerr.With(zerr.New(domain.ErrNotManagedImage.Error()), "signature", sig)
	}
	c.u16() // major
	c.u16() // minor
	c.u32() // reserved
	versionLen := int(c.u32())
	c.take(align4(versionLen))
	c.u16() // flags
	count := int(c.u16())
	if c.err != nil {
		return nil, c.err
	}

	md := &metadata{}
	var tableStream []byte
	for range count {
		start := c.off
		off := int(c.u32())
		size := int(c.u32())
		name := c.cstring(start + 8)
		if c.err != nil {
			return nil, c.err
		}
		if off < 0 || size < 0 || off+size > len(b) {
			return nil, zerr.With(zerr.New(domain.ErrMetadataCorrupt.Error()), "stream", name)
		}
		data := b[off : off+size]
		switch name {
		case "#~", "#-":
			tableStream = data
		case "#Strings":
			md.strings = data
		case "#Blob":
			md.blobs = data
		}
	}

	if tableStream == nil {
		return nil, zerr.With(zerr.New(domain.ErrMetadataCorrupt.Error()), "stream", "#~")
	}

	t, err := parseTables(tableStream)
	if err != nil {
		return nil, err
	}
	md.tables = t
	return md, nil
}

// str returns the string at idx in the #Strings heap.
func (m *metadata) str(idx uint32) (string, error) {
	if int(idx) >= len(m.strings) {
		if idx == 0 {
			return "", nil
		}
		return "", zerr.With(zerr.New(domain.ErrMetadataCorrupt.Error()), "string_index", idx)
	}
	end := int(idx)
	for end < len(m.strings) && m.strings[end] != 0 {
		end++
	}
	return string(m.strings[idx:end]), nil
}

// blob returns the blob at idx in the #Blob heap without its length prefix.
func (m *metadata) blob(idx uint32) ([]byte, error) {
	if idx == 0 {
		return nil, nil
	}
	if int(idx) >= len(m.blobs) {
		return nil, zerr.With(zerr.New(domain.ErrMetadataCorrupt.Error()), "blob_index", idx)
	}
	size, n, err := decodeCompressed(m.blobs[idx:])
	if err != nil {
		return nil, err
	}
	start := int(idx) + n
	if start+int(size) > len(m.blobs) {
		return nil, zerr.With(zerr.New(domain.ErrMetadataCorrupt.Error()), "blob_index", idx)
	}
	return m.blobs[start : start+int(size)], nil
}
