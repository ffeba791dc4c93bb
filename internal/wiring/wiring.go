// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/rattle/internal/adapters/cas"
	_ "go.trai.ch/rattle/internal/adapters/config"
	_ "go.trai.ch/rattle/internal/adapters/logger"
	_ "go.trai.ch/rattle/internal/adapters/metrics"
	_ "go.trai.ch/rattle/internal/adapters/repodata"
	_ "go.trai.ch/rattle/internal/adapters/telemetry"
	// Register app nodes.
	_ "go.trai.ch/rattle/internal/app"
)
