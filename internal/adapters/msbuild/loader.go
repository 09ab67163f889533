// Package msbuild reads SDK-style project files.
package msbuild

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"go.trai.ch/plugpack/internal/core/domain"
	"go.trai.ch/plugpack/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ProjectLoader = (*Loader)(nil)

type projectXML struct {
	PropertyGroups []propertyGroupXML `xml:"PropertyGroup"`
	ItemGroups     []itemGroupXML     `xml:"ItemGroup"`
}

type propertyGroupXML struct {
	Properties []propertyXML `xml:",any"`
}

type propertyXML struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type itemGroupXML struct {
	PackageReferences []packageReferenceXML `xml:"PackageReference"`
}

type packageReferenceXML struct {
	Include        string `xml:"Include,attr"`
	VersionAttr    string `xml:"Version,attr"`
	VersionElement string `xml:"Version"`
}

const assemblyNameProperty = "AssemblyName"

var propertyRef = regexp.MustCompile(`\$\(([A-Za-z_][A-Za-z0-9_.\-]*)\)`)

// Loader implements ports.ProjectLoader for .csproj files.
type Loader struct {
	logger ports.Logger
}

// NewLoader creates a new Loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load finds the single project file at the top of cwd and parses it.
func (l *Loader) Load(cwd string) (*domain.Project, error) {
	path, err := findProjectFile(cwd)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // Path is discovered inside cwd
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrProjectReadFailed.Error()), "path", path)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	project, unresolved, err := parse(data, properties{"MSBuildProjectName": name})
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	for _, ref := range unresolved {
		l.logger.Warn("unresolved property " + ref + " in " + filepath.Base(path))
	}
	if project.Name == "" {
		project.Name = name
	}
	project.Path = path
	return project, nil
}

// properties holds project properties by name. Lookups ignore case.
type properties map[string]string

func (p properties) lookup(name string) (string, bool) {
	for key, value := range p {
		if strings.EqualFold(key, name) {
			return value, true
		}
	}
	return "", false
}

func (p properties) set(name, value string) {
	for key := range p {
		if strings.EqualFold(key, name) {
			delete(p, key)
		}
	}
	p[name] = value
}

// expand substitutes $(Name) references with their property values.
// Unknown references are left as written.
func (p properties) expand(s string) string {
	return propertyRef.ReplaceAllStringFunc(s, func(ref string) string {
		if value, ok := p.lookup(propertyRef.FindStringSubmatch(ref)[1]); ok {
			return value
		}
		return ref
	})
}

// Parse decodes project XML. The returned project has no name unless the
// project overrides its AssemblyName. Property references in package names
// and versions are expanded from the project's property groups; references
// that cannot be resolved are left as written.
func Parse(data []byte) (*domain.Project, error) {
	project, _, err := parse(data, properties{})
	return project, err
}

// parse evaluates property groups in document order, each value seeing the
// properties defined before it. Conditions are not evaluated.
func parse(data []byte, props properties) (*domain.Project, []string, error) {
	var doc projectXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, nil, zerr.Wrap(err, domain.ErrProjectParseFailed.Error())
	}

	// unresolved collects references left in the name and the package references.
	var unresolved []string
	note := func(value string) string {
		for _, ref := range propertyRef.FindAllString(value, -1) {
			if !slices.Contains(unresolved, ref) {
				unresolved = append(unresolved, ref)
			}
		}
		return value
	}

	project := &domain.Project{}
	for _, group := range doc.PropertyGroups {
		for _, prop := range group.Properties {
			value := props.expand(strings.TrimSpace(prop.Value))
			props.set(prop.XMLName.Local, value)
			if strings.EqualFold(prop.XMLName.Local, assemblyNameProperty) && value != "" {
				project.Name = note(value)
			}
		}
	}

	for _, group := range doc.ItemGroups {
		for _, ref := range group.PackageReferences {
			name := note(props.expand(strings.TrimSpace(ref.Include)))
			if name == "" {
				continue
			}
			version := strings.TrimSpace(ref.VersionAttr)
			if version == "" {
				version = strings.TrimSpace(ref.VersionElement)
			}
			version = note(props.expand(version))
			project.Dependencies = append(project.Dependencies, domain.DependencyDeclaration{
				Name:              name,
				VersionConstraint: version,
			})
		}
	}
	return project, unresolved, nil
}

func findProjectFile(cwd string) (string, error) {
	entries, err := os.ReadDir(cwd)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrProjectReadFailed.Error()), "dir", cwd)
	}

	var matches []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.EqualFold(filepath.Ext(entry.Name()), domain.ProjectFileExt) {
			matches = append(matches, filepath.Join(cwd, entry.Name()))
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		err := zerr.With(zerr.New(domain.ErrProjectNotFound.Error()), "dir", cwd)
		return "", zerr.With(err, "count", 0)
	default:
		slices.Sort(matches)
		err := zerr.With(zerr.New(domain.ErrAmbiguousProject.Error()), "dir", cwd)
		err = zerr.With(err, "count", len(matches))
		return "", zerr.With(err, "matches", strings.Join(matches, ", "))
	}
}
