// Package clrmeta reads assembly identity and exported types from managed PE images
// without loading or executing them.
package clrmeta

import (
	"crypto/sha1" //nolint:gosec // public key tokens are defined over SHA-1
	"encoding/hex"
	"fmt"
	"os"

	"go.trai.ch/plugpack/internal/core/domain"
	"go.trai.ch/plugpack/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.AssemblyInspector = (*Reader)(nil)

const (
	moduleTypeName = "<Module>"

	typeVisibilityMask = 0x7
	typePublic         = 0x1
	typeNestedPublic   = 0x2

	assemblyFlagPublicKey = 0x1

	elementTypeValueType   = 0x11
	elementTypeClass       = 0x12
	elementTypeGenericInst = 0x15

	publicKeyTokenSize = 8
)

// Reader implements ports.AssemblyInspector over the ECMA-335 metadata tables.
type Reader struct{}

// NewReader creates a new Reader.
func NewReader() *Reader {
	return &Reader{}
}

// Identity reads the assembly manifest of the file at path.
func (r *Reader) Identity(path string) (domain.AssemblyIdentity, error) {
	md, err := r.load(path)
	if err != nil {
		return domain.AssemblyIdentity{}, err
	}
	id, err := md.identity()
	if err != nil {
		return domain.AssemblyIdentity{}, zerr.With(err, "path", path)
	}
	return id, nil
}

// Inspect reads the manifest, the assembly references and the exported types of the file at path.
func (r *Reader) Inspect(path string) (*domain.AssemblyMetadata, error) {
	md, err := r.load(path)
	if err != nil {
		return nil, err
	}

	id, err := md.identity()
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	refs, err := md.references()
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	types, err := md.exportedTypes()
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}

	return &domain.AssemblyMetadata{
		Identity:   id,
		Types:      types,
		References: refs,
	}, nil
}

func (r *Reader) load(path string) (*metadata, error) {
	f, err := os.Open(path) //nolint:gosec // Path comes from the package cache walk
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", path)
	}
	defer f.Close() //nolint:errcheck // Read-only file

	info, err := f.Stat()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", path)
	}

	raw, err := readMetadata(f, info.Size())
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	md, err := parseMetadata(raw)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return md, nil
}

func (m *metadata) identity() (domain.AssemblyIdentity, error) {
	if m.tables.rows[tAssembly] == 0 {
		return domain.AssemblyIdentity{}, zerr.New(domain.ErrNoAssemblyManifest.Error())
	}

	var v [9]uint32
	for i := range v {
		val, err := m.tables.cell(tAssembly, 1, i)
		if err != nil {
			return domain.AssemblyIdentity{}, err
		}
		v[i] = val
	}

	name, err := m.str(v[7])
	if err != nil {
		return domain.AssemblyIdentity{}, err
	}
	culture, err := m.str(v[8])
	if err != nil {
		return domain.AssemblyIdentity{}, err
	}
	key, err := m.blob(v[6])
	if err != nil {
		return domain.AssemblyIdentity{}, err
	}

	return domain.AssemblyIdentity{
		Name:           name,
		Version:        fmt.Sprintf("%d.%d.%d.%d", v[1], v[2], v[3], v[4]),
		Culture:        culture,
		PublicKeyToken: publicKeyToken(key, true),
	}, nil
}

func (m *metadata) references() ([]domain.AssemblyIdentity, error) {
	n := m.tables.rows[tAssemblyRef]
	refs := make([]domain.AssemblyIdentity, 0, n)
	for row := uint32(1); row <= n; row++ {
		var v [8]uint32
		for i := range v {
			val, err := m.tables.cell(tAssemblyRef, row, i)
			if err != nil {
				return nil, err
			}
			v[i] = val
		}
		name, err := m.str(v[6])
		if err != nil {
			return nil, err
		}
		culture, err := m.str(v[7])
		if err != nil {
			return nil, err
		}
		key, err := m.blob(v[5])
		if err != nil {
			return nil, err
		}
		refs = append(refs, domain.AssemblyIdentity{
			Name:           name,
			Version:        fmt.Sprintf("%d.%d.%d.%d", v[0], v[1], v[2], v[3]),
			Culture:        culture,
			PublicKeyToken: publicKeyToken(key, v[4]&assemblyFlagPublicKey != 0),
		})
	}
	return refs, nil
}

// publicKeyToken returns the hex token of a public key blob, or the blob itself
// when it already holds a token.
func publicKeyToken(key []byte, fullKey bool) string {
	if len(key) == 0 {
		return ""
	}
	if !fullKey && len(key) == publicKeyTokenSize {
		return hex.EncodeToString(key)
	}
	sum := sha1.Sum(key) //nolint:gosec // public key tokens are defined over SHA-1
	token := make([]byte, publicKeyTokenSize)
	for i := range token {
		token[i] = sum[len(sum)-1-i]
	}
	return hex.EncodeToString(token)
}
