// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/utica/internal/adapters/config"
	_ "go.trai.ch/utica/internal/adapters/git"
	_ "go.trai.ch/utica/internal/adapters/logger"
	// Register app nodes.
	_ "go.trai.ch/utica/internal/app"
)
