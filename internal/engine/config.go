// Package engine implements C9: the per-symbol book registry that admits
// orders through the risk gate (C5), matches them against the book (C3),
// and emits the resulting events through the pipeline (C7). Grounded on
// original_source/src/trading_engine.rs's symbol-keyed registry and the
// teacher's internal/core/matching/engine.go Engine interface shape.
package engine

import (
	"github.com/hftcore/lobengine/internal/events"
	"github.com/hftcore/lobengine/internal/risk"
)

// BookFlavor selects which C3 concurrency strategy new symbols use.
type BookFlavor uint8

const (
	FlavorLatched BookFlavor = iota
	FlavorLockFree
)

// Config bundles the sub-component configs the engine wires together, per
// §6's "the core accepts a constructed EngineConfig struct" (no CLI/env
// binding at this layer).
type Config struct {
	BookFlavor     BookFlavor
	Risk           risk.GateConfig
	Pipeline       events.PipelineConfig
	DefaultLevels  int
}

func DefaultConfig() Config {
	return Config{
		BookFlavor:    FlavorLatched,
		Risk:          risk.DefaultGateConfig(),
		Pipeline:      events.DefaultPipelineConfig(),
		DefaultLevels: 10,
	}
}
