// Package prompting provides a top-level convenience entry point for
// building a fully wired simulated prompting network with minimal
// boilerplate.
//
// Usage:
//
//	import "github.com/minopeef/prompting"
//
//	sim := prompting.New(config.Default(), logger)
//	res, err := sim.Dispatcher.Dispatch(ctx, sim.Registry.Targets(), req, opts)
//
// Callers needing finer control assemble the pieces from the transport,
// registry and textgen packages directly; this wrapper takes every knob
// from the config.
package prompting

import (
	"time"

	"go.uber.org/zap"

	"github.com/minopeef/prompting/config"
	"github.com/minopeef/prompting/internal/metrics"
	"github.com/minopeef/prompting/registry"
	"github.com/minopeef/prompting/textgen"
	"github.com/minopeef/prompting/transport"
)

// Simulation bundles the wired components of one simulated network.
type Simulation struct {
	Registry   *registry.Registry
	Pipeline   *textgen.Pipeline
	Dispatcher *transport.Dispatcher
	Collector  *metrics.Collector
}

// New builds a simulation from cfg: a node registry of the configured
// size, an echo pipeline, both call simulators sharing one seeded delay
// source, and a dispatcher over them. With metrics enabled a collector is
// created and attached.
func New(cfg *config.Config, logger *zap.Logger) *Simulation {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	seed := cfg.Simulator.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	clock := transport.SystemClock()
	delays := transport.NewDelaySource(seed)

	pipeline := textgen.NewPipeline(cfg.Simulator.Phrase, logger)
	unary := transport.NewUnarySimulator(pipeline, clock, delays, logger)

	streamer := transport.NewTokenStreamer(cfg.Simulator.BatchSize, clock, delays, logger)
	streamer.SetDelayFractions(cfg.Simulator.DelayMinFrac, cfg.Simulator.DelayMaxFrac)
	stream := transport.NewStreamSimulator(streamer, clock, logger)

	dispatcher := transport.NewDispatcher(unary, stream, logger)

	sim := &Simulation{
		Registry:   registry.NewNetwork(cfg.Network.Nodes, logger),
		Pipeline:   pipeline,
		Dispatcher: dispatcher,
	}
	if cfg.Metrics.Enabled {
		sim.Collector = metrics.NewCollector(cfg.Metrics.Namespace, logger)
		dispatcher.WithMetrics(sim.Collector)
	}
	return sim
}

// DefaultTimeout re-exports the transport default so callers of this
// package rarely need to import transport for plain dispatches.
const DefaultTimeout = transport.DefaultTimeout
