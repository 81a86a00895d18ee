package state

import (
	"runtime"
	"time"

	"fluidcss/common"
	"fluidcss/config"
)

// newLocalEnv creates a new LocalEnv instance with default values, they are
// replaced from configuration once it is loaded.
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start: time.Now(),
		Mode:  common.OutputModeWrite,
		Jobs:  runtime.NumCPU(),
	}
}

// ApplyConfig copies processing defaults from loaded configuration.
func (e *LocalEnv) ApplyConfig(cfg *config.Config) {
	e.Cfg = cfg
	e.Mode = cfg.Processing.Mode
	if cfg.Processing.Jobs > 0 {
		e.Jobs = cfg.Processing.Jobs
	}
}
