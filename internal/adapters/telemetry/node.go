package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/rattle/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the tracer Graft node.
	NodeID graft.ID = "adapter.tracer"
	// ExporterNodeID is the unique identifier for the trace exporter Graft node.
	ExporterNodeID graft.ID = "adapter.trace_exporter"
)

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Tracer, error) {
			return NewOTelTracer(ServiceName), nil
		},
	})

	graft.Register(graft.Node[ports.TraceExporter]{
		ID:        ExporterNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.TraceExporter, error) {
			return Exporter{}, nil
		},
	})
}
