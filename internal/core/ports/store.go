package ports

import "go.trai.ch/rattle/internal/core/domain"

// LockStore persists solutions as lockfiles keyed by their requested specs.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type LockStore interface {
	// Get retrieves the lockfile recorded for specs.
	// Returns nil, nil if not found.
	Get(specs []string) (*domain.Lockfile, error)

	// Put stores the lockfile under its specs.
	Put(lf *domain.Lockfile) error
}
