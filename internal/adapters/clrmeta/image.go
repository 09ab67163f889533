package clrmeta

import (
	"debug/pe"
	"encoding/binary"
	"io"

	"go.trai.ch/plugpack/internal/core/domain"
	"go.trai.ch/zerr"
)

const cliHeaderMinSize = 16

// readMetadata returns the raw CLI metadata block of a PE image of the given
// length in bytes.
func readMetadata(r io.ReaderAt, length int64) ([]byte, error) {
	f, err := pe.NewFile(r)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrNotManagedImage.Error())
	}

	var dirs []pe.DataDirectory
	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		dirs = oh.DataDirectory[:min(oh.NumberOfRvaAndSizes, uint32(len(oh.DataDirectory)))]
	case *pe.OptionalHeader64:
		dirs = oh.DataDirectory[:min(oh.NumberOfRvaAndSizes, uint32(len(oh.DataDirectory)))]
	}

	if len(dirs) <= pe.IMAGE_DIRECTORY_ENTRY_COM_DESCRIPTOR {
		return nil, zerr.New(domain.ErrNotManagedImage.Error())
	}
	clr := dirs[pe.IMAGE_DIRECTORY_ENTRY_COM_DESCRIPTOR]
	if clr.VirtualAddress == 0 || clr.Size < cliHeaderMinSize {
		return nil, zerr.New(domain.ErrNotManagedImage.Error())
	}

	header, err := readRVA(f, clr.VirtualAddress, clr.Size, length)
	if err != nil {
		return nil, err
	}

	mdRVA := binary.LittleEndian.Uint32(header[8:])
	mdSize := binary.LittleEndian.Uint32(header[12:])
	if mdRVA == 0 || mdSize == 0 {
		return nil, zerr.New(domain.ErrNotManagedImage.Error())
	}

	return readRVA(f, mdRVA, mdSize, length)
}

// readRVA maps a relative virtual address onto the section containing it.
// The range must lie within both the section's raw data and the file.
func readRVA(f *pe.File, rva, size uint32, length int64) ([]byte, error) {
	for _, s := range f.Sections {
		extent := max(s.VirtualSize, s.Size)
		if rva < s.VirtualAddress || rva >= s.VirtualAddress+extent {
			continue
		}
		off := rva - s.VirtualAddress
		if uint64(off)+uint64(size) > uint64(s.Size) {
			break
		}
		if int64(s.Offset)+int64(off)+int64(size) > length {
			break
		}
		buf := make([]byte, size)
		if _, err := s.ReadAt(buf, int64(off)); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrMetadataCorrupt.Error()), "rva", rva)
		}
		return buf, nil
	}
	return nil, zerr.With(zerr.New(domain.ErrMetadataCorrupt.Error()), "rva", rva)
}
