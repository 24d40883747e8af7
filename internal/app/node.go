package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/sift/internal/adapters/config"
	"go.trai.ch/sift/internal/adapters/fs"
	"go.trai.ch/sift/internal/adapters/logger"
	"go.trai.ch/sift/internal/adapters/telemetry"
	"go.trai.ch/sift/internal/adapters/watcher"
	"go.trai.ch/sift/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			logger.NodeID,
			watcher.NodeID,
			config.NodeID,
			fs.WalkerNodeID,
			telemetry.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			w, err := graft.Dep[ports.Watcher](ctx)
			if err != nil {
				return nil, err
			}

			loader, err := graft.Dep[*config.Loader](ctx)
			if err != nil {
				return nil, err
			}

			walker, err := graft.Dep[*fs.Walker](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			return New(log, w, loader, walker, tracer), nil
		},
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: a, Logger: log}, nil
		},
	})
}
