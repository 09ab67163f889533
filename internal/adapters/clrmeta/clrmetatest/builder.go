// Package clrmetatest builds small managed PE images for tests.
//
// The images carry a single section holding a CLI header and a metadata block
// with the Module, TypeRef, TypeDef, TypeSpec, Assembly, AssemblyRef and
// NestedClass tables. Heaps and tables are kept small enough for 2-byte indexes.
package clrmetatest

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"os"
)

// Type visibility flags.
const (
	NotPublic    uint32 = 0x0
	Public       uint32 = 0x1
	NestedPublic uint32 = 0x2
	NestedPriv   uint32 = 0x3
	Interface    uint32 = 0x20 | 0x80
)

// RefKind selects the table a type reference points into.
type RefKind int

const (
	// None is a null reference.
	None RefKind = iota
	// Def points at a type defined in the same assembly.
	Def
	// Ref points at a type defined in another assembly.
	Ref
	// GenericOf points at a generic instantiation of Target.
	GenericOf
)

// TypeRef names a base type by kind and name.
type TypeRef struct {
	Kind   RefKind
	Name   string
	Target *TypeRef
}

// DefTo references the type named name in Types.
func DefTo(name string) TypeRef { return TypeRef{Kind: Def, Name: name} }

// RefTo references the type named name in External.
func RefTo(name string) TypeRef { return TypeRef{Kind: Ref, Name: name} }

// Generic references a generic instantiation of target.
func Generic(target TypeRef) TypeRef { return TypeRef{Kind: GenericOf, Target: &target} }

// Reference is an AssemblyRef row.
type Reference struct {
	Name           string
	Version        [4]uint16
	PublicKeyToken []byte
}

// External is a TypeRef row. Assembly names a Reference; EnclosedBy names another External.
type External struct {
	Namespace  string
	Name       string
	Assembly   string
	EnclosedBy string
}

// Type is a TypeDef row. EnclosedBy names another Type.
type Type struct {
	Namespace  string
	Name       string
	Flags      uint32
	Extends    TypeRef
	EnclosedBy string
}

// Assembly describes the image to build.
type Assembly struct {
	Name       string
	Version    [4]uint16
	Culture    string
	PublicKey  []byte
	NoManifest bool
	References []Reference
	Externals  []External
	Types      []Type
}

// WriteFile writes the image to path.
func (a Assembly) WriteFile(path string) error {
	return os.WriteFile(path, a.Bytes(), 0o600)
}

// Bytes returns the PE image.
func (a Assembly) Bytes() []byte {
	return wrapPE(a.metadata())
}

type heap struct {
	buf   bytes.Buffer
	index map[string]uint16
}

func newHeap() *heap {
	h := &heap{index: make(map[string]uint16)}
	h.buf.WriteByte(0)
	return h
}

func (h *heap) str(s string) uint16 {
	if s == "" {
		return 0
	}
	if i, ok := h.index[s]; ok {
		return i
	}
	i := uint16(h.buf.Len())
	h.buf.WriteString(s)
	h.buf.WriteByte(0)
	h.index[s] = i
	return i
}

func (h *heap) blob(b []byte) uint16 {
	if len(b) == 0 {
		return 0
	}
	i := uint16(h.buf.Len())
	h.buf.Write(EncodeCompressed(uint32(len(b))))
	h.buf.Write(b)
	return i
}

// EncodeCompressed encodes v as an ECMA-335 compressed unsigned integer.
func EncodeCompressed(v uint32) []byte {
	switch {
	case v < 0x80:
		return []byte{byte(v)}
	case v < 0x4000:
		return []byte{byte(v>>8) | 0x80, byte(v)}
	default:
		return []byte{byte(v>>24) | 0xC0, byte(v >> 16), byte(v >> 8), byte(v)}
	}
}

const (
	tModule      = 0x00
	tTypeRef     = 0x01
	tTypeDef     = 0x02
	tTypeSpec    = 0x1B
	tAssembly    = 0x20
	tAssemblyRef = 0x23
	tNestedClass = 0x29
)

type builder struct {
	a       Assembly
	strings *heap
	blobs   *heap
	specs   [][]byte
}

func (b *builder) defRow(name string) uint16 {
	for i, t := range b.a.Types {
		if t.Name == name {
			return uint16(i + 2)
		}
	}
	return 0
}

func (b *builder) externalRow(name string) uint16 {
	for i, e := range b.a.Externals {
		if e.Name == name {
			return uint16(i + 1)
		}
	}
	return 0
}

func (b *builder) referenceRow(name string) uint16 {
	for i, r := range b.a.References {
		if r.Name == name {
			return uint16(i + 1)
		}
	}
	return 0
}

// typeDefOrRef encodes ref as a TypeDefOrRef coded index, adding TypeSpec rows as needed.
func (b *builder) typeDefOrRef(ref TypeRef) uint16 {
	switch ref.Kind {
	case Def:
		return b.defRow(ref.Name) << 2
	case Ref:
		return b.externalRow(ref.Name)<<2 | 1
	case GenericOf:
		target := b.typeDefOrRef(*ref.Target)
		sig := []byte{0x15, 0x12}
		sig = append(sig, EncodeCompressed(uint32(target))...)
		sig = append(sig, 1, 0x1C)
		b.specs = append(b.specs, sig)
		return uint16(len(b.specs))<<2 | 2
	default:
		return 0
	}
}

func (b *builder) metadata() []byte {
	a := b.a
	var rows [64][]byte
	var counts [64]uint32

	put := func(table int, fields ...any) {
		var row bytes.Buffer
		for _, f := range fields {
			_ = binary.Write(&row, binary.LittleEndian, f)
		}
		rows[table] = append(rows[table], row.Bytes()...)
		counts[table]++
	}

	put(tModule, uint16(0), b.strings.str(a.Name+".dll"), uint16(1), uint16(0), uint16(0))

	for _, e := range a.Externals {
		scope := uint16(1 << 2)
		switch {
		case e.EnclosedBy != "":
			scope = b.externalRow(e.EnclosedBy)<<2 | 3
		case e.Assembly != "":
			scope = b.referenceRow(e.Assembly)<<2 | 2
		}
		put(tTypeRef, scope, b.strings.str(e.Name), b.strings.str(e.Namespace))
	}

	put(tTypeDef, uint32(0), b.strings.str("<Module>"), uint16(0), uint16(0), uint16(1), uint16(1))
	for _, t := range a.Types {
		put(tTypeDef, t.Flags, b.strings.str(t.Name), b.strings.str(t.Namespace),
			b.typeDefOrRef(t.Extends), uint16(1), uint16(1))
	}

	for _, sig := range b.specs {
		put(tTypeSpec, b.blobs.blob(sig))
	}

	if !a.NoManifest {
		var flags uint32
		if len(a.PublicKey) > 0 {
			flags = 1
		}
		put(tAssembly, uint32(0x8004), a.Version[0], a.Version[1], a.Version[2], a.Version[3],
			flags, b.blobs.blob(a.PublicKey), b.strings.str(a.Name), b.strings.str(a.Culture))
	}

	for _, r := range a.References {
		put(tAssemblyRef, r.Version[0], r.Version[1], r.Version[2], r.Version[3], uint32(0),
			b.blobs.blob(r.PublicKeyToken), b.strings.str(r.Name), uint16(0), uint16(0))
	}

	for i, t := range a.Types {
		if t.EnclosedBy != "" {
			put(tNestedClass, uint16(i+2), b.defRow(t.EnclosedBy))
		}
	}

	var tbl bytes.Buffer
	var valid uint64
	for i, n := range counts {
		if n > 0 {
			valid |= 1 << i
		}
	}
	_ = binary.Write(&tbl, binary.LittleEndian, uint32(0))
	tbl.Write([]byte{2, 0, 0, 1})
	_ = binary.Write(&tbl, binary.LittleEndian, valid)
	_ = binary.Write(&tbl, binary.LittleEndian, uint64(0))
	for _, n := range counts {
		if n > 0 {
			_ = binary.Write(&tbl, binary.LittleEndian, n)
		}
	}
	for _, r := range rows {
		tbl.Write(r)
	}

	guids := make([]byte, 16)
	copy(guids, a.Name)

	streams := []struct {
		name string
		data []byte
	}{
		{"#~", pad4(tbl.Bytes())},
		{"#Strings", pad4(b.strings.buf.Bytes())},
		{"#GUID", guids},
		{"#Blob", pad4(b.blobs.buf.Bytes())},
	}

	version := pad4([]byte("v4.0.30319\x00"))
	headerSize := 16 + len(version) + 4
	for _, s := range streams {
		headerSize += 8 + len(pad4(append([]byte(s.name), 0)))
	}

	var md bytes.Buffer
	_ = binary.Write(&md, binary.LittleEndian, uint32(0x424A5342))
	_ = binary.Write(&md, binary.LittleEndian, uint16(1))
	_ = binary.Write(&md, binary.LittleEndian, uint16(1))
	_ = binary.Write(&md, binary.LittleEndian, uint32(0))
	_ = binary.Write(&md, binary.LittleEndian, uint32(len(version)))
	md.Write(version)
	_ = binary.Write(&md, binary.LittleEndian, uint16(0))
	_ = binary.Write(&md, binary.LittleEndian, uint16(len(streams)))

	offset := headerSize
	for _, s := range streams {
		_ = binary.Write(&md, binary.LittleEndian, uint32(offset))
		_ = binary.Write(&md, binary.LittleEndian, uint32(len(s.data)))
		md.Write(pad4(append([]byte(s.name), 0)))
		offset += len(s.data)
	}
	for _, s := range streams {
		md.Write(s.data)
	}
	return md.Bytes()
}

func (a Assembly) metadata() []byte {
	b := &builder{a: a, strings: newHeap(), blobs: newHeap()}
	return b.metadata()
}

func pad4(b []byte) []byte {
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	return b
}

const (
	peHeaderOffset = 0x80
	fileAlignment  = 0x200
	sectionRVA     = 0x2000
	cliHeaderSize  = 72
)

// wrapPE places the metadata block in a minimal PE32 image.
func wrapPE(md []byte) []byte {
	var section bytes.Buffer
	_ = binary.Write(&section, binary.LittleEndian, uint32(cliHeaderSize))
	_ = binary.Write(&section, binary.LittleEndian, uint16(2))
	_ = binary.Write(&section, binary.LittleEndian, uint16(5))
	_ = binary.Write(&section, binary.LittleEndian, uint32(sectionRVA+cliHeaderSize))
	_ = binary.Write(&section, binary.LittleEndian, uint32(len(md)))
	_ = binary.Write(&section, binary.LittleEndian, uint32(1))
	section.Write(make([]byte, cliHeaderSize-section.Len()))
	section.Write(md)
	raw := section.Bytes()
	for len(raw)%fileAlignment != 0 {
		raw = append(raw, 0)
	}

	var img bytes.Buffer
	dos := make([]byte, peHeaderOffset)
	dos[0], dos[1] = 'M', 'Z'
	binary.LittleEndian.PutUint32(dos[0x3C:], peHeaderOffset)
	img.Write(dos)
	img.WriteString("PE\x00\x00")

	_ = binary.Write(&img, binary.LittleEndian, pe.FileHeader{
		Machine:              pe.IMAGE_FILE_MACHINE_I386,
		NumberOfSections:     1,
		SizeOfOptionalHeader: uint16(binary.Size(pe.OptionalHeader32{})),
		Characteristics:      pe.IMAGE_FILE_EXECUTABLE_IMAGE | pe.IMAGE_FILE_32BIT_MACHINE | pe.IMAGE_FILE_DLL,
	})

	oh := pe.OptionalHeader32{
		Magic:               0x10b,
		SizeOfCode:          uint32(len(raw)),
		BaseOfCode:          sectionRVA,
		ImageBase:           0x10000000,
		SectionAlignment:    sectionRVA,
		FileAlignment:       fileAlignment,
		SizeOfImage:         sectionRVA + uint32(len(raw)),
		SizeOfHeaders:       fileAlignment,
		Subsystem:           pe.IMAGE_SUBSYSTEM_WINDOWS_CUI,
		NumberOfRvaAndSizes: 16,
	}
	oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_COM_DESCRIPTOR] = pe.DataDirectory{
		VirtualAddress: sectionRVA,
		Size:           cliHeaderSize,
	}
	_ = binary.Write(&img, binary.LittleEndian, oh)

	sh := pe.SectionHeader32{
		VirtualSize:      uint32(len(raw)),
		VirtualAddress:   sectionRVA,
		SizeOfRawData:    uint32(len(raw)),
		PointerToRawData: fileAlignment,
		Characteristics:  pe.IMAGE_SCN_CNT_CODE | pe.IMAGE_SCN_MEM_EXECUTE | pe.IMAGE_SCN_MEM_READ,
	}
	copy(sh.Name[:], ".text")
	_ = binary.Write(&img, binary.LittleEndian, sh)

	img.Write(make([]byte, fileAlignment-img.Len()))
	img.Write(raw)
	return img.Bytes()
}
