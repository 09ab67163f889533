package ports

// ArtifactLocator defines the interface for finding the published build output.
//
//go:generate mockgen -source=artifact_locator.go -destination=mocks/mock_artifact_locator.go -package=mocks
type ArtifactLocator interface {
	// Locate returns the single published binary named fileName below root.
	Locate(root, fileName string) (string, error)
}
