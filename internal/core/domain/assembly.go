package domain

import (
	"fmt"
	"strings"
)

// AssemblyIdentity is the self-described identity of a managed assembly.
type AssemblyIdentity struct {
	Name           string
	Version        string
	Culture        string
	PublicKeyToken string
}

// String returns the assembly display name.
func (id AssemblyIdentity) String() string {
	culture := id.Culture
	if culture == "" {
		culture = "neutral"
	}
	token := id.PublicKeyToken
	if token == "" {
		token = "null"
	}
	return fmt.Sprintf("%s, Version=%s, Culture=%s, PublicKeyToken=%s", id.Name, id.Version, culture, token)
}

// Key returns a case-insensitive cache key for the identity.
func (id AssemblyIdentity) Key() string {
	return strings.ToLower(id.String())
}

// TypeInfo describes an exported type and its immediate base type.
type TypeInfo struct {
	FullName string
	BaseType string
}

// AssemblyMetadata is the statically read type surface of an assembly.
type AssemblyMetadata struct {
	Identity   AssemblyIdentity
	Types      []TypeInfo
	References []AssemblyIdentity
}

// DerivesDirectlyFrom reports whether any exported type has baseType as its immediate base.
func (m *AssemblyMetadata) DerivesDirectlyFrom(baseType string) (TypeInfo, bool) {
	if baseType == "" {
		return TypeInfo{}, false
	}
	for _, t := range m.Types {
		if t.BaseType == baseType {
			return t, true
		}
	}
	return TypeInfo{}, false
}
