package resolver

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/plugpack/internal/adapters/clrmeta"
	"go.trai.ch/plugpack/internal/adapters/logger"
	"go.trai.ch/plugpack/internal/adapters/nuget"
	"go.trai.ch/plugpack/internal/core/ports"
)

// NodeID is the unique identifier for the resolver Graft node.
const NodeID graft.ID = "engine.resolver"

func init() {
	graft.Register(graft.Node[*Resolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{nuget.NodeID, clrmeta.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Resolver, error) {
			cache, err := graft.Dep[ports.PackageCache](ctx)
			if err != nil {
				return nil, err
			}
			inspector, err := graft.Dep[ports.AssemblyInspector](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(cache, NewPluginFilter(inspector, log), log), nil
		},
	})
}
