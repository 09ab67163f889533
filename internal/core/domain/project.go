package domain

// Project is the parsed project descriptor.
type Project struct {
	Name         string
	Path         string
	Dependencies []DependencyDeclaration
}

// ArtifactName returns the file name of the project's build output.
func (p *Project) ArtifactName() string {
	return p.Name + AssemblyExt
}
