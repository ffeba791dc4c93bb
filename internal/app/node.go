package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/rattle/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/rattle/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/rattle/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/rattle/internal/adapters/metrics"   //nolint:depguard // Wired in app layer
	"go.trai.ch/rattle/internal/adapters/repodata"  //nolint:depguard // Wired in app layer
	"go.trai.ch/rattle/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/rattle/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			repodata.NodeID,
			cas.NodeID,
			metrics.NodeID,
			telemetry.NodeID,
			telemetry.ExporterNodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

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

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.EnvironmentLoader](ctx)
	if err != nil {
		return nil, err
	}

	source, err := graft.Dep[ports.RecordSource](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.LockStore](ctx)
	if err != nil {
		return nil, err
	}

	m, err := graft.Dep[ports.Metrics](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	exporter, err := graft.Dep[ports.TraceExporter](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, source, store, m, tracer, exporter, log), nil
}
