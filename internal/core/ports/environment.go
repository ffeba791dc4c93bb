// Package ports defines the core interfaces for the application.
package ports

import "go.trai.ch/rattle/internal/core/domain"

// EnvironmentLoader reads environment files.
//
//go:generate go run go.uber.org/mock/mockgen -source=environment.go -destination=mocks/mock_environment.go -package=mocks
type EnvironmentLoader interface {
	// Load reads the environment file at path.
	Load(path string) (*domain.Environment, error)
}
