package transport

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/minopeef/prompting/internal/metrics"
	"github.com/minopeef/prompting/protocol"
)

// StreamSimulator drives one token stream to completion per call and
// produces the terminal response record for the streaming path.
type StreamSimulator struct {
	streamer  *TokenStreamer
	clock     Clock
	logger    *zap.Logger
	collector *metrics.Collector
}

// NewStreamSimulator creates a streaming call simulator over streamer.
// A nil streamer gets default settings; nil clock and logger fall back to
// system defaults.
func NewStreamSimulator(streamer *TokenStreamer, clock Clock, logger *zap.Logger) *StreamSimulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = SystemClock()
	}
	if streamer == nil {
		streamer = NewTokenStreamer(0, clock, nil, logger)
	}
	return &StreamSimulator{streamer: streamer, clock: clock, logger: logger}
}

// WithMetrics attaches a collector recording emitted chunk counts.
func (s *StreamSimulator) WithMetrics(c *metrics.Collector) *StreamSimulator {
	s.collector = c
	return s
}

// CallStream simulates one streaming exchange. The returned channel
// delivers exactly one terminal record and is then closed; the caller is
// never left without a record and never observes a hang.
//
// Two independent checks race against the same clock: the token stream
// cuts off intake when it sees the deadline pass, and this consumer loop
// re-checks the deadline after every non-final chunk. When the stream's
// internal cutoff flushes its final chunk first, the call reports 200 with
// a truncated completion instead of 408. That outcome is part of the
// contract, not a bug to fix.
func (s *StreamSimulator) CallStream(ctx context.Context, req *protocol.StreamPromptRequest, timeout time.Duration) <-chan *protocol.Response {
	out := make(chan *protocol.Response, 1)

	go func() {
		defer close(out)

		start := s.clock.Now()
		stream := s.streamer.Stream(req.Env.Prompt(), start, timeout)

		var buf []string
		var resp *protocol.Response

		for {
			chunk, ok := stream.Next()
			if !ok {
				// Stream ended without a terminal chunk (empty prompt, or
				// the buffer was exactly empty after the last full batch).
				// Whatever accumulated is still a completed response.
				resp = s.finalize(buf, protocol.StatusOK, "OK", s.clock.Now().Sub(start))
				break
			}
			if s.collector != nil {
				s.collector.RecordChunk(len(chunk.Tokens))
			}
			buf = append(buf, chunk.Tokens...)

			if !chunk.More {
				resp = s.finalize(buf, protocol.StatusOK, "OK", s.clock.Now().Sub(start))
				break
			}
			if s.clock.Now().Sub(start) > timeout {
				// Partial buffer becomes the completion; process time is
				// clamped to the timeout.
				resp = s.finalize(buf, protocol.StatusTimeout, "Timeout", timeout)
				break
			}
		}

		s.logger.Debug("streaming call finished",
			zap.String("trace_id", req.Env.TraceID),
			zap.Int("status", resp.StatusCode),
			zap.Duration("process_time", resp.ProcessTime),
		)

		select {
		case out <- resp:
		case <-ctx.Done():
		}
	}()

	return out
}

func (s *StreamSimulator) finalize(buf []string, code int, msg string, processTime time.Duration) *protocol.Response {
	return &protocol.Response{
		Completion:    strings.Join(buf, " "),
		StatusCode:    code,
		StatusMessage: msg,
		ProcessTime:   processTime,
	}
}
