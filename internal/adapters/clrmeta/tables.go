package clrmeta

import (
	"encoding/binary"

	"go.trai.ch/plugpack/internal/core/domain"
	"go.trai.ch/zerr"
)

type tableID uint8

const (
	tModule tableID = iota
	tTypeRef
	tTypeDef
	tFieldPtr
	tField
	tMethodPtr
	tMethodDef
	tParamPtr
	tParam
	tInterfaceImpl
	tMemberRef
	tConstant
	tCustomAttribute
	tFieldMarshal
	tDeclSecurity
	tClassLayout
	tFieldLayout
	tStandAloneSig
	tEventMap
	tEventPtr
	tEvent
	tPropertyMap
	tPropertyPtr
	tProperty
	tMethodSemantics
	tMethodImpl
	tModuleRef
	tTypeSpec
	tImplMap
	tFieldRVA
	tEncLog
	tEncMap
	tAssembly
	tAssemblyProcessor
	tAssemblyOS
	tAssemblyRef
	tAssemblyRefProcessor
	tAssemblyRefOS
	tFile
	tExportedType
	tManifestResource
	tNestedClass
	tGenericParam
	tMethodSpec
	tGenericParamConstraint
	numTables
)

// unusedTag marks a coded index tag with no table behind it.
const unusedTag tableID = 0xFF

const (
	heapStringWide = 0x01
	heapGUIDWide   = 0x02
	heapBlobWide   = 0x04
	heapExtraData  = 0x40
)

type codedIndex struct {
	bits   uint
	tables []tableID
}

var (
	resolutionScope     = &codedIndex{2, []tableID{tModule, tModuleRef, tAssemblyRef, tTypeRef}}
	typeDefOrRef        = &codedIndex{2, []tableID{tTypeDef, tTypeRef, tTypeSpec}}
	hasConstant         = &codedIndex{2, []tableID{tField, tParam, tProperty}}
	hasFieldMarshal     = &codedIndex{1, []tableID{tField, tParam}}
	hasDeclSecurity     = &codedIndex{2, []tableID{tTypeDef, tMethodDef, tAssembly}}
	memberRefParent     = &codedIndex{3, []tableID{tTypeDef, tTypeRef, tModuleRef, tMethodDef, tTypeSpec}}
	hasSemantics        = &codedIndex{1, []tableID{tEvent, tProperty}}
	methodDefOrRef      = &codedIndex{1, []tableID{tMethodDef, tMemberRef}}
	memberForwarded     = &codedIndex{1, []tableID{tField, tMethodDef}}
	implementation      = &codedIndex{2, []tableID{tFile, tAssemblyRef, tExportedType}}
	customAttributeType = &codedIndex{3, []tableID{unusedTag, unusedTag, tMethodDef, tMemberRef, unusedTag}}
	typeOrMethodDef     = &codedIndex{1, []tableID{tTypeDef, tMethodDef}}
	hasCustomAttribute  = &codedIndex{5, []tableID{
		tMethodDef, tField, tTypeRef, tTypeDef, tParam, tInterfaceImpl, tMemberRef, tModule,
		tDeclSecurity, tProperty, tEvent, tStandAloneSig, tModuleRef, tTypeSpec, tAssembly,
		tAssemblyRef, tFile, tExportedType, tManifestResource, tGenericParam,
		tGenericParamConstraint, tMethodSpec,
	}}
)

type colKind uint8

const (
	colU16 colKind = iota
	colU32
	colString
	colGUID
	colBlob
	colTable
	colCoded
)

type column struct {
	kind  colKind
	table tableID
	coded *codedIndex
}

var (
	u16  = column{kind: colU16}
	u32  = column{kind: colU32}
	str  = column{kind: colString}
	guid = column{kind: colGUID}
	blob = column{kind: colBlob}
)

func idx(t tableID) column { return column{kind: colTable, table: t} }
func coded(ci *codedIndex) column { return column{kind: colCoded, coded: ci} }

// schema lists the columns of every table defined by ECMA-335 partition II.
var schema = [numTables][]column{
	tModule:                 {u16, str, guid, guid, guid},
	tTypeRef:                {coded(resolutionScope), str, str},
	tTypeDef:                {u32, str, str, coded(typeDefOrRef), idx(tField), idx(tMethodDef)},
	tFieldPtr:               {idx(tField)},
	tField:                  {u16, str, blob},
	tMethodPtr:              {idx(tMethodDef)},
	tMethodDef:              {u32, u16, u16, str, blob, idx(tParam)},
	tParamPtr:               {idx(tParam)},
	tParam:                  {u16, u16, str},
	tInterfaceImpl:          {idx(tTypeDef), coded(typeDefOrRef)},
	tMemberRef:              {coded(memberRefParent), str, blob},
	tConstant:               {u16, coded(hasConstant), blob},
	tCustomAttribute:        {coded(hasCustomAttribute), coded(customAttributeType), blob},
	tFieldMarshal:           {coded(hasFieldMarshal), blob},
	tDeclSecurity:           {u16, coded(hasDeclSecurity), blob},
	tClassLayout:            {u16, u32, idx(tTypeDef)},
	tFieldLayout:            {u32, idx(tField)},
	tStandAloneSig:          {blob},
	tEventMap:               {idx(tTypeDef), idx(tEvent)},
	tEventPtr:               {idx(tEvent)},
	tEvent:                  {u16, str, coded(typeDefOrRef)},
	tPropertyMap:            {idx(tTypeDef), idx(tProperty)},
	tPropertyPtr:            {idx(tProperty)},
	tProperty:               {u16, str, blob},
	tMethodSemantics:        {u16, idx(tMethodDef), coded(hasSemantics)},
	tMethodImpl:             {idx(tTypeDef), coded(methodDefOrRef), coded(methodDefOrRef)},
	tModuleRef:              {str},
	tTypeSpec:               {blob},
	tImplMap:                {u16, coded(memberForwarded), str, idx(tModuleRef)},
	tFieldRVA:               {u32, idx(tField)},
	tEncLog:                 {u32, u32},
	tEncMap:                 {u32},
	tAssembly:               {u32, u16, u16, u16, u16, u32, blob, str, str},
	tAssemblyProcessor:      {u32},
	tAssemblyOS:             {u32, u32, u32},
	tAssemblyRef:            {u16, u16, u16, u16, u32, blob, str, str, blob},
	tAssemblyRefProcessor:   {u32, idx(tAssemblyRef)},
	tAssemblyRefOS:          {u32, u32, u32, idx(tAssemblyRef)},
	tFile:                   {u32, str, blob},
	tExportedType:           {u32, u32, str, str, coded(implementation)},
	tManifestResource:       {u32, u32, str, coded(implementation)},
	tNestedClass:            {idx(tTypeDef), idx(tTypeDef)},
	tGenericParam:           {u16, u16, coded(typeOrMethodDef), str},
	tMethodSpec:             {coded(methodDefOrRef), blob},
	tGenericParamConstraint: {idx(tGenericParam), coded(typeDefOrRef)},
}

// tables is the decoded layout of the #~ stream.
type tables struct {
	data    []byte
	rows    [numTables]uint32
	offsets [numTables]int
	rowSize [numTables]int
	widths  [numTables][]int
}

func parseTables(b []byte) (*tables, error) {
	c := &cursor{b: b}
	c.u32() // reserved
	c.u8()  // major
	c.u8()  // minor
	heapSizes := c.u8()
	c.u8() // reserved
	valid := c.u64()
	c.u64() // sorted
	if c.err != nil {
		return nil, c.err
	}

	t := &tables{}
	for i := range 64 {
		if valid&(1<<i) == 0 {
			continue
		}
		if i >= int(numTables) {
			return nil, zerr.With(zerr.New(domain.ErrMetadataCorrupt.Error()), "table", i)
		}
		t.rows[i] = c.u32()
	}
	if heapSizes&heapExtraData != 0 {
		c.u32()
	}
	if c.err != nil {
		return nil, c.err
	}

	stringWidth := wideIf(heapSizes&heapStringWide != 0)
	guidWidth := wideIf(heapSizes&heapGUIDWide != 0)
	blobWidth := wideIf(heapSizes&heapBlobWide != 0)

	offset := 0
	for id := range numTables {
		widths := make([]int, len(schema[id]))
		size := 0
		for i, col := range schema[id] {
			switch col.kind {
			case colU16:
				widths[i] = 2
			case colU32:
				widths[i] = 4
			case colString:
				widths[i] = stringWidth
			case colGUID:
				widths[i] = guidWidth
			case colBlob:
				widths[i] = blobWidth
			case colTable:
				widths[i] = wideIf(t.rows[col.table] >= 1<<16)
			case colCoded:
				widths[i] = t.codedWidth(col.coded)
			}
			size += widths[i]
		}
		t.widths[id] = widths
		t.rowSize[id] = size
		t.offsets[id] = offset
		offset += size * int(t.rows[id])
	}

	if c.off+offset > len(b) {
		return nil, zerr.With(zerr.New(domain.ErrMetadataCorrupt.Error()), "tables_size", offset)
	}
	t.data = b[c.off : c.off+offset]
	return t, nil
}

func wideIf(wide bool) int {
	if wide {
		return 4
	}
	return 2
}

func (t *tables) codedWidth(ci *codedIndex) int {
	var maxRows uint32
	for _, id := range ci.tables {
		if id != unusedTag && t.rows[id] > maxRows {
			maxRows = t.rows[id]
		}
	}
	return wideIf(maxRows >= 1<<(16-ci.bits))
}

// cell returns column col of the 1-based row in table id.
func (t *tables) cell(id tableID, row uint32, col int) (uint32, error) {
	if row == 0 || row > t.rows[id] {
		return 0, zerr.With(zerr.With(zerr.New(domain.ErrMetadataCorrupt.Error()), "table", int(id)), "row", row)
	}
	off := t.offsets[id] + int(row-1)*t.rowSize[id]
	for _, w := range t.widths[id][:col] {
		off += w
	}
	if t.widths[id][col] == 4 {
		return binary.LittleEndian.Uint32(t.data[off:]), nil
	}
	return uint32(binary.LittleEndian.Uint16(t.data[off:])), nil
}

// decode splits a coded index value into its table and 1-based row.
// A zero row denotes a null reference.
func (ci *codedIndex) decode(v uint32) (tableID, uint32, error) {
	tag := v & (1<<ci.bits - 1)
	if int(tag) >= len(ci.tables) || ci.tables[tag] == unusedTag {
		return 0, 0, zerr.With(zerr.New(domain.ErrMetadataCorrupt.Error()), "coded_tag", tag)
	}
	return ci.tables[tag], v >> ci.bits, nil
}
