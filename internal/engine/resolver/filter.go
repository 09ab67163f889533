package resolver

import (
	"go.trai.ch/plugpack/internal/core/ports"
)

// PluginFilter classifies library files as plugins or plain dependencies by
// reading their metadata statically.
type PluginFilter struct {
	inspector ports.AssemblyInspector
	logger    ports.Logger
}

// NewPluginFilter creates a new PluginFilter.
func NewPluginFilter(inspector ports.AssemblyInspector, logger ports.Logger) *PluginFilter {
	return &PluginFilter{inspector: inspector, logger: logger}
}

// IsPlugin reports whether an exported type of the assembly at path derives
// directly from the plugin base type of rc. Unreadable files are not plugins.
func (f *PluginFilter) IsPlugin(rc *Context, path string) bool {
	id, ok := rc.identity(path)
	if !ok {
		var err error
		id, err = f.inspector.Identity(path)
		if err != nil {
			f.logger.Warn("cannot read assembly " + path + ", treating it as a dependency: " + err.Error())
			return false
		}
		rc.storeIdentity(path, id)
	}

	if isPlugin, ok := rc.verdict(id); ok {
		return isPlugin
	}

	md, err := f.inspector.Inspect(path)
	if err != nil {
		f.logger.Warn("cannot read types of " + id.String() + ", treating it as a dependency: " + err.Error())
		rc.storeVerdict(id, false)
		return false
	}

	typ, isPlugin := md.DerivesDirectlyFrom(rc.PluginBaseType())
	if isPlugin {
		f.logger.Info("found plugin type " + typ.FullName + " in " + id.Name)
	}
	rc.storeVerdict(id, isPlugin)
	return isPlugin
}
