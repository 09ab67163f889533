package nuget

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/plugpack/internal/adapters/fs"
	"go.trai.ch/plugpack/internal/core/ports"
)

// NodeID is the unique identifier for the package cache Graft node.
const NodeID graft.ID = "adapter.package_cache"

func init() {
	graft.Register(graft.Node[ports.PackageCache]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.WalkerNodeID},
		Run: func(ctx context.Context) (ports.PackageCache, error) {
			walker, err := graft.Dep[*fs.Walker](ctx)
			if err != nil {
				return nil, err
			}
			return NewCache(walker), nil
		},
	})
}
