// Package common provides shared wiring for command implementations.
package common

import (
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/config"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/logger"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/metrics"
)

// Deps holds common dependencies for all commands.
type Deps struct {
	Config  *config.Config
	Logger  logger.Logger
	Metrics *metrics.Recorder
	Version string
}

// Validate ensures all required dependencies are present.
func (d Deps) Validate() error {
	if d.Logger == nil {
		return ErrLoggerRequired
	}
	if d.Config == nil {
		return ErrConfigRequired
	}
	return nil
}
