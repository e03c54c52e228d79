// promptsim runs the simulated prompting network from the command line.
//
// Usage:
//
//	promptsim run                        # one fan-out dispatch with defaults
//	promptsim run --config config.yaml   # load settings from a file
//	promptsim run --stream --concurrent  # streaming mode, concurrent fan-out
//	promptsim version                    # show version info
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/minopeef/prompting"
	"github.com/minopeef/prompting/config"
	"github.com/minopeef/prompting/internal/telemetry"
	"github.com/minopeef/prompting/protocol"
	"github.com/minopeef/prompting/transport"
	"github.com/minopeef/prompting/types"
)

// Build-time injected.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runDispatch(os.Args[2:])
	case "version":
		fmt.Printf("promptsim %s (%s)\n", Version, GitCommit)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`promptsim - simulated prompting network

Commands:
  run       dispatch one request across the simulated network
  version   show version info
  help      show this help

Run flags:
  --config      path to YAML config file
  --nodes       number of serving nodes (overrides config)
  --timeout     per-call timeout (overrides config)
  --prompt      user prompt to dispatch
  --stream      use the streaming exchange
  --concurrent  query all targets concurrently`)
}

func runDispatch(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	nodes := fs.Int("nodes", 0, "number of serving nodes")
	timeout := fs.Duration("timeout", 0, "per-call timeout")
	prompt := fs.String("prompt", "What does the simulated network echo back?", "user prompt")
	streaming := fs.Bool("stream", false, "use the streaming exchange")
	concurrent := fs.Bool("concurrent", false, "query all targets concurrently")
	_ = fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *nodes > 0 {
		cfg.Network.Nodes = *nodes
	}
	if *timeout > 0 {
		cfg.Simulator.Timeout = *timeout
	}

	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	providers, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Fatal("init telemetry", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(ctx)
	}()

	sim := prompting.New(cfg, logger)

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Addr, logger)
	}

	msgs := []types.Message{
		types.NewSystemMessage("You are a node on a simulated network."),
		types.NewUserMessage(*prompt),
	}

	opts := transport.Options{
		Timeout:    cfg.Simulator.Timeout,
		Concurrent: *concurrent,
		Streaming:  *streaming,
	}

	var req protocol.Request
	if *streaming {
		req = protocol.NewStreamPromptRequest(msgs, cfg.Simulator.Timeout)
	} else {
		req = protocol.NewPromptRequest(msgs, cfg.Simulator.Timeout)
	}

	targets := sim.Registry.Targets()
	logger.Info("dispatching",
		zap.Int("targets", len(targets)),
		zap.Bool("streaming", *streaming),
		zap.Bool("concurrent", *concurrent),
		zap.Duration("timeout", cfg.Simulator.Timeout),
	)

	res, err := sim.Dispatcher.Dispatch(context.Background(), targets, req, opts)
	if err != nil {
		logger.Fatal("dispatch failed", zap.Error(err))
	}

	if *streaming {
		reportStreams(logger, res)
	} else {
		reportResponses(logger, res.Responses)
	}
}

func reportResponses(logger *zap.Logger, responses []*protocol.Response) {
	var ok, timedOut int
	for i, r := range responses {
		if r.TimedOut() {
			timedOut++
		} else {
			ok++
		}
		logger.Info("response",
			zap.Int("target", i),
			zap.Int("status", r.StatusCode),
			zap.Duration("process_time", r.ProcessTime),
			zap.String("completion", r.Completion),
		)
	}
	logger.Info("dispatch summary", zap.Int("ok", ok), zap.Int("timeout", timedOut))
}

func reportStreams(logger *zap.Logger, res *transport.Result) {
	var ok, timedOut int
	for i, stream := range res.Streams {
		r := <-stream
		if r == nil {
			continue
		}
		if r.TimedOut() {
			timedOut++
		} else {
			ok++
		}
		logger.Info("stream response",
			zap.Int("target", i),
			zap.Int("status", r.StatusCode),
			zap.Duration("process_time", r.ProcessTime),
			zap.String("completion", r.Completion),
		)
	}
	logger.Info("dispatch summary", zap.Int("ok", ok), zap.Int("timeout", timedOut))
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("metrics endpoint listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics endpoint failed", zap.Error(err))
	}
}

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoding = "console"
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      encoding == "console",
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
