package repodata

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/rattle/internal/adapters/logger"
	"go.trai.ch/rattle/internal/core/ports"
)

// NodeID is the unique identifier for the record source Graft node.
const NodeID graft.ID = "adapter.record_source"

func init() {
	graft.Register(graft.Node[ports.RecordSource]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.RecordSource, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewSource(log), nil
		},
	})
}
