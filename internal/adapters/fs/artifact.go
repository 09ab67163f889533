package fs

import (
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/plugpack/internal/core/domain"
	"go.trai.ch/plugpack/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ArtifactLocator = (*ArtifactLocator)(nil)

// ArtifactLocator finds the published build output of a project.
type ArtifactLocator struct {
	walker *Walker
}

// NewArtifactLocator creates a new ArtifactLocator.
func NewArtifactLocator(walker *Walker) *ArtifactLocator {
	return &ArtifactLocator{walker: walker}
}

// Locate returns the only file named fileName below root whose path relative
// to root contains every artifact path marker.
func (l *ArtifactLocator) Locate(root, fileName string) (string, error) {
	var matches []string
	for path, err := range l.walker.WalkFiles(root, []string{domain.StateDirName}) {
		if err != nil {
			return "", zerr.With(zerr.Wrap(err, domain.ErrArtifactSearchFailed.Error()), "root", root)
		}
		if filepath.Base(path) != fileName {
			continue
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			continue
		}
		if hasMarkers(filepath.ToSlash(rel)) {
			matches = append(matches, path)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		err := zerr.With(zerr.New(domain.ErrArtifactNotFound.Error()), "file", fileName)
		return "", zerr.With(err, "count", 0)
	default:
		slices.Sort(matches)
		err := zerr.With(zerr.New(domain.ErrAmbiguousArtifact.Error()), "file", fileName)
		err = zerr.With(err, "count", len(matches))
		return "", zerr.With(err, "matches", strings.Join(matches, ", "))
	}
}

func hasMarkers(path string) bool {
	for _, marker := range domain.ArtifactPathMarkers {
		if !strings.Contains(path, marker) {
			return false
		}
	}
	return true
}
