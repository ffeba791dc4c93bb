package ports

import (
	"context"

	"go.trai.ch/rattle/internal/core/domain"
)

// RecordSource loads package records from repository metadata.
//
//go:generate go run go.uber.org/mock/mockgen -source=record_source.go -destination=mocks/mock_record_source.go -package=mocks
type RecordSource interface {
	// LoadRecordsRecursive reads the given sources and returns every record reachable
	// from the root names through dependency edges, all alternatives included.
	//
	// Sources are merged in the order given: a record whose name, version and build
	// was already supplied by an earlier source is dropped. Returned records are
	// immutable.
	LoadRecordsRecursive(ctx context.Context, sources []string, roots []string) (domain.PackageIndex, error)
}
