package clrmeta

import (
	"go.trai.ch/plugpack/internal/core/domain"
	"go.trai.ch/zerr"
)

// typeNames resolves TypeDef, TypeRef and TypeSpec rows to full type names.
type typeNames struct {
	md        *metadata
	enclosing map[uint32]uint32
	defs      map[uint32]string
	refs      map[uint32]string
}

func newTypeNames(md *metadata) (*typeNames, error) {
	n := &typeNames{
		md:        md,
		enclosing: make(map[uint32]uint32),
		defs:      make(map[uint32]string),
		refs:      make(map[uint32]string),
	}
	for row := uint32(1); row <= md.tables.rows[tNestedClass]; row++ {
		nested, err := md.tables.cell(tNestedClass, row, 0)
		if err != nil {
			return nil, err
		}
		outer, err := md.tables.cell(tNestedClass, row, 1)
		if err != nil {
			return nil, err
		}
		n.enclosing[nested] = outer
	}
	return n, nil
}

func (m *metadata) exportedTypes() ([]domain.TypeInfo, error) {
	names, err := newTypeNames(m)
	if err != nil {
		return nil, err
	}

	var types []domain.TypeInfo
	for row := uint32(1); row <= m.tables.rows[tTypeDef]; row++ {
		exported, err := names.exported(row, 0)
		if err != nil {
			return nil, err
		}
		if !exported {
			continue
		}

		fullName, err := names.def(row, 0)
		if err != nil {
			return nil, err
		}
		if fullName == moduleTypeName {
			continue
		}

		extends, err := m.tables.cell(tTypeDef, row, 3)
		if err != nil {
			return nil, err
		}
		base, err := names.typeDefOrRef(extends, 0)
		if err != nil {
			return nil, err
		}

		types = append(types, domain.TypeInfo{FullName: fullName, BaseType: base})
	}
	return types, nil
}

// exported reports whether the TypeDef row is visible outside the assembly.
// Nested types are visible only when every enclosing type is.
func (n *typeNames) exported(row uint32, depth int) (bool, error) {
	if err := n.checkDepth(depth); err != nil {
		return false, err
	}
	flags, err := n.md.tables.cell(tTypeDef, row, 0)
	if err != nil {
		return false, err
	}

	outer, nested := n.enclosing[row]
	switch flags & typeVisibilityMask {
	case typePublic:
		return !nested, nil
	case typeNestedPublic:
		if !nested {
			return false, nil
		}
		return n.exported(outer, depth+1)
	default:
		return false, nil
	}
}

func (n *typeNames) def(row uint32, depth int) (string, error) {
	if name, ok := n.defs[row]; ok {
		return name, nil
	}
	if err := n.checkDepth(depth); err != nil {
		return "", err
	}

	name, err := n.qualified(tTypeDef, row, 1, 2)
	if err != nil {
		return "", err
	}
	if outer, ok := n.enclosing[row]; ok {
		parent, err := n.def(outer, depth+1)
		if err != nil {
			return "", err
		}
		name = parent + "+" + name
	}

	n.defs[row] = name
	return name, nil
}

func (n *typeNames) ref(row uint32, depth int) (string, error) {
	if name, ok := n.refs[row]; ok {
		return name, nil
	}
	if err := n.checkDepth(depth); err != nil {
		return "", err
	}

	name, err := n.qualified(tTypeRef, row, 1, 2)
	if err != nil {
		return "", err
	}

	scope, err := n.md.tables.cell(tTypeRef, row, 0)
	if err != nil {
		return "", err
	}
	table, parentRow, err := resolutionScope.decode(scope)
	if err != nil {
		return "", err
	}
	if table == tTypeRef && parentRow != 0 {
		parent, err := n.ref(parentRow, depth+1)
		if err != nil {
			return "", err
		}
		name = parent + "+" + name
	}

	n.refs[row] = name
	return name, nil
}

// typeDefOrRef resolves a TypeDefOrRef coded index. A null index yields "".
func (n *typeNames) typeDefOrRef(v uint32, depth int) (string, error) {
	table, row, err := typeDefOrRef.decode(v)
	if err != nil {
		return "", err
	}
	if row == 0 {
		return "", nil
	}
	switch table {
	case tTypeDef:
		return n.def(row, depth)
	case tTypeRef:
		return n.ref(row, depth)
	default:
		return n.spec(row, depth)
	}
}

// spec resolves a generic instantiation to the name of its generic type definition.
func (n *typeNames) spec(row uint32, depth int) (string, error) {
	if err := n.checkDepth(depth); err != nil {
		return "", err
	}
	sigIdx, err := n.md.tables.cell(tTypeSpec, row, 0)
	if err != nil {
		return "", err
	}
	sig, err := n.md.blob(sigIdx)
	if err != nil {
		return "", err
	}
	if len(sig) < 3 || sig[0] != elementTypeGenericInst ||
		(sig[1] != elementTypeClass && sig[1] != elementTypeValueType) {
		return "", zerr.With(zerr.New(domain.ErrMetadataCorrupt.Error()), "type_spec", row)
	}

	encoded, _, err := decodeCompressed(sig[2:])
	if err != nil {
		return "", err
	}
	if table, _, err := typeDefOrRef.decode(encoded); err != nil || table == tTypeSpec {
		return "", zerr.With(zerr.New(domain.ErrMetadataCorrupt.Error()), "type_spec", row)
	}
	return n.typeDefOrRef(encoded, depth+1)
}

// qualified joins the namespace and name columns of a row.
func (n *typeNames) qualified(table tableID, row uint32, nameCol, nsCol int) (string, error) {
	nameIdx, err := n.md.tables.cell(table, row, nameCol)
	if err != nil {
		return "", err
	}
	nsIdx, err := n.md.tables.cell(table, row, nsCol)
	if err != nil {
		return "", err
	}
	name, err := n.md.str(nameIdx)
	if err != nil {
		return "", err
	}
	ns, err := n.md.str(nsIdx)
	if err != nil {
		return "", err
	}
	if ns == "" {
		return name, nil
	}
	return ns + "." + name, nil
}

func (n *typeNames) checkDepth(depth int) error {
	if depth > int(n.md.tables.rows[tTypeDef]+n.md.tables.rows[tTypeRef]+n.md.tables.rows[tTypeSpec]) {
		return zerr.New(domain.ErrMetadataCorrupt.Error())
	}
	return nil
}
