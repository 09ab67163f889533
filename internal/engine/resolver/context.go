package resolver

import (
	"sync"

	"go.trai.ch/plugpack/internal/core/domain"
)

// Context carries the caches of one resolution run. Identities are cached by
// file path and plugin verdicts by assembly identity, so the same assembly
// found under two paths is inspected once.
type Context struct {
	pluginBaseType string

	mu         sync.Mutex
	identities map[string]domain.AssemblyIdentity
	verdicts   map[string]bool
}

// NewContext creates a resolution context that classifies assemblies
// against pluginBaseType.
func NewContext(pluginBaseType string) *Context {
	return &Context{
		pluginBaseType: pluginBaseType,
		identities:     make(map[string]domain.AssemblyIdentity),
		verdicts:       make(map[string]bool),
	}
}

// PluginBaseType returns the full name of the type plugins derive from.
func (c *Context) PluginBaseType() string {
	return c.pluginBaseType
}

func (c *Context) identity(path string) (domain.AssemblyIdentity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.identities[path]
	return id, ok
}

func (c *Context) storeIdentity(path string, id domain.AssemblyIdentity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.identities[path]; !ok {
		c.identities[path] = id
	}
}

func (c *Context) verdict(id domain.AssemblyIdentity) (isPlugin, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	isPlugin, ok = c.verdicts[id.Key()]
	return isPlugin, ok
}

func (c *Context) storeVerdict(id domain.AssemblyIdentity, isPlugin bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.verdicts[id.Key()]; !ok {
		c.verdicts[id.Key()] = isPlugin
	}
}
