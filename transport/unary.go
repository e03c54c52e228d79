package transport

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/minopeef/prompting/protocol"
	"github.com/minopeef/prompting/textgen"
)

// UnarySimulator resolves single-shot calls to one target without real
// network I/O. The simulated process time is drawn uniformly from
// [0, 2*timeout), so roughly half of all calls resolve as timeouts. That
// ratio is a designed property of the distribution, not an accident.
type UnarySimulator struct {
	gen    textgen.Generator
	clock  Clock
	delays DelaySource
	logger *zap.Logger
}

// NewUnarySimulator creates a unary call simulator. gen supplies the
// completion text on success; nil arguments fall back to an echo pipeline,
// the system clock, a time-seeded delay source and a nop logger.
func NewUnarySimulator(gen textgen.Generator, clock Clock, delays DelaySource, logger *zap.Logger) *UnarySimulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gen == nil {
		gen = textgen.NewPipeline("", logger)
	}
	if clock == nil {
		clock = SystemClock()
	}
	if delays == nil {
		delays = NewDelaySource(time.Now().UnixNano())
	}
	return &UnarySimulator{gen: gen, clock: clock, delays: delays, logger: logger}
}

// Call simulates one unary exchange with the target at position index.
// It always returns a record: 200 with a completion that encodes index
// when the drawn process time beats the timeout, otherwise 408 with an
// empty completion and the process time clamped to the timeout.
func (s *UnarySimulator) Call(index int, start time.Time, req *protocol.PromptRequest, timeout time.Duration) *protocol.Response {
	processTime := time.Duration(s.delays.Float64() * float64(2*timeout))

	if processTime < timeout {
		return &protocol.Response{
			Completion:    fmt.Sprintf("%s %d", s.gen.Generate(req.Env.Messages), index),
			StatusCode:    protocol.StatusOK,
			StatusMessage: "OK",
			ProcessTime:   processTime,
		}
	}

	s.logger.Debug("unary call timed out",
		zap.Int("index", index),
		zap.String("trace_id", req.Env.TraceID),
		zap.Duration("elapsed", s.clock.Now().Sub(start)),
		zap.Duration("timeout", timeout),
	)
	return &protocol.Response{
		Completion:    "",
		StatusCode:    protocol.StatusTimeout,
		StatusMessage: "Timeout",
		ProcessTime:   timeout,
	}
}
