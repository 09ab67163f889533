package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/plugpack/internal/adapters/cas"     //nolint:depguard // Wired in app layer
	"go.trai.ch/plugpack/internal/adapters/config"  //nolint:depguard // Wired in app layer
	"go.trai.ch/plugpack/internal/adapters/fs"      //nolint:depguard // Wired in app layer
	"go.trai.ch/plugpack/internal/adapters/logger"  //nolint:depguard // Wired in app layer
	"go.trai.ch/plugpack/internal/adapters/msbuild" //nolint:depguard // Wired in app layer
	"go.trai.ch/plugpack/internal/adapters/watcher" //nolint:depguard // Wired in app layer
	"go.trai.ch/plugpack/internal/core/ports"
	"go.trai.ch/plugpack/internal/engine/merger"
	"go.trai.ch/plugpack/internal/engine/resolver"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			msbuild.NodeID,
			resolver.NodeID,
			fs.ArtifactLocatorNodeID,
			merger.NodeID,
			cas.NodeID,
			fs.HasherNodeID,
			watcher.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	configLoader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	projectLoader, err := graft.Dep[ports.ProjectLoader](ctx)
	if err != nil {
		return nil, err
	}

	res, err := graft.Dep[*resolver.Resolver](ctx)
	if err != nil {
		return nil, err
	}

	locator, err := graft.Dep[ports.ArtifactLocator](ctx)
	if err != nil {
		return nil, err
	}

	orchestrator, err := graft.Dep[*merger.Orchestrator](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.BuildInfoStore](ctx)
	if err != nil {
		return nil, err
	}

	hasher, err := graft.Dep[ports.Hasher](ctx)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(configLoader, projectLoader, res, locator, orchestrator, store, hasher, fsWatcher, log), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		App:    app,
		Logger: log,
	}, nil
}
