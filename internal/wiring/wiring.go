// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/plugpack/internal/adapters/cas"
	_ "go.trai.ch/plugpack/internal/adapters/clrmeta"
	_ "go.trai.ch/plugpack/internal/adapters/config"
	_ "go.trai.ch/plugpack/internal/adapters/fs"
	_ "go.trai.ch/plugpack/internal/adapters/logger"
	_ "go.trai.ch/plugpack/internal/adapters/msbuild"
	_ "go.trai.ch/plugpack/internal/adapters/nuget"
	_ "go.trai.ch/plugpack/internal/adapters/shell"
	_ "go.trai.ch/plugpack/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/plugpack/internal/app"
	_ "go.trai.ch/plugpack/internal/engine/merger"
	_ "go.trai.ch/plugpack/internal/engine/resolver"
)
