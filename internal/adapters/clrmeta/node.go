package clrmeta

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/plugpack/internal/core/ports"
)

// NodeID is the unique identifier for the assembly inspector Graft node.
const NodeID graft.ID = "adapter.assembly_inspector"

func init() {
	graft.Register(graft.Node[ports.AssemblyInspector]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.AssemblyInspector, error) {
			return NewReader(), nil
		},
	})
}
