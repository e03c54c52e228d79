package transport

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/minopeef/prompting/protocol"
)

const (
	// DefaultBatchSize is the number of tokens per emitted chunk.
	DefaultBatchSize = 12
	// DefaultDelayMinFrac and DefaultDelayMaxFrac bound the simulated
	// per-batch processing delay as fractions of the call timeout.
	DefaultDelayMinFrac = 0.2
	DefaultDelayMaxFrac = 0.5
)

// TokenStreamer turns prompts into batched token streams with simulated
// per-batch processing latency.
type TokenStreamer struct {
	batchSize    int
	delayMinFrac float64
	delayMaxFrac float64
	clock        Clock
	delays       DelaySource
	logger       *zap.Logger
}

// NewTokenStreamer creates a streamer emitting batchSize tokens per chunk.
// batchSize <= 0 falls back to DefaultBatchSize; nil clock, delays and
// logger fall back to system defaults.
func NewTokenStreamer(batchSize int, clock Clock, delays DelaySource, logger *zap.Logger) *TokenStreamer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if clock == nil {
		clock = SystemClock()
	}
	if delays == nil {
		delays = NewDelaySource(time.Now().UnixNano())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenStreamer{
		batchSize:    batchSize,
		delayMinFrac: DefaultDelayMinFrac,
		delayMaxFrac: DefaultDelayMaxFrac,
		clock:        clock,
		delays:       delays,
		logger:       logger,
	}
}

// SetDelayFractions overrides the per-batch delay bounds. Values outside
// (0, max] are kept only when min <= max.
func (s *TokenStreamer) SetDelayFractions(min, max float64) {
	if min < 0 || max < min {
		return
	}
	s.delayMinFrac = min
	s.delayMaxFrac = max
}

// Stream starts a token stream over prompt. The prompt is split on
// whitespace; elapsed time is measured from start against timeout.
func (s *TokenStreamer) Stream(prompt string, start time.Time, timeout time.Duration) *TokenStream {
	return &TokenStream{
		s:       s,
		tokens:  strings.Fields(prompt),
		start:   start,
		timeout: timeout,
	}
}

// TokenStream is a finite, non-restartable pull sequence of chunks. The
// chunk with More == false is the only reliable end-of-stream signal: a
// timeout stops token intake but never suppresses the final flush of a
// non-empty buffer. When the buffer is exactly empty after the last full
// batch, the stream simply ends without a final chunk.
type TokenStream struct {
	s       *TokenStreamer
	tokens  []string
	start   time.Time
	timeout time.Duration
	pos     int
	buf     []string
	done    bool
}

// Next returns the next chunk. ok is false once the stream is exhausted.
// Any fault during token processing is logged and ends the stream early,
// after flushing whatever the buffer holds.
func (ts *TokenStream) Next() (chunk protocol.StreamChunk, ok bool) {
	if ts.done {
		return protocol.StreamChunk{}, false
	}

	defer func() {
		if r := recover(); r != nil {
			ts.s.logger.Error("token stream fault, ending stream early",
				zap.Any("fault", r),
				zap.Int("position", ts.pos),
			)
			ts.pos = len(ts.tokens)
			chunk, ok = ts.flush()
		}
	}()

	for ts.pos < len(ts.tokens) {
		ts.buf = append(ts.buf, ts.tokens[ts.pos])
		ts.pos++

		if ts.s.clock.Now().Sub(ts.start) > ts.timeout {
			ts.s.logger.Debug("timeout reached, stopping token intake",
				zap.Int("position", ts.pos),
				zap.Int("total", len(ts.tokens)),
			)
			ts.pos = len(ts.tokens)
			break
		}

		if len(ts.buf) == ts.s.batchSize {
			ts.s.clock.Sleep(ts.batchDelay())
			out := ts.buf
			ts.buf = nil
			return protocol.StreamChunk{Tokens: out, More: true}, true
		}
	}

	return ts.flush()
}

// flush emits the remainder as the terminal chunk, or ends the stream when
// the buffer is empty.
func (ts *TokenStream) flush() (protocol.StreamChunk, bool) {
	ts.done = true
	if len(ts.buf) == 0 {
		return protocol.StreamChunk{}, false
	}
	out := ts.buf
	ts.buf = nil
	return protocol.StreamChunk{Tokens: out, More: false}, true
}

// batchDelay draws the simulated processing latency for one batch,
// uniform over [delayMinFrac, delayMaxFrac) of the timeout.
func (ts *TokenStream) batchDelay() time.Duration {
	frac := ts.s.delayMinFrac + ts.s.delays.Float64()*(ts.s.delayMaxFrac-ts.s.delayMinFrac)
	return time.Duration(frac * float64(ts.timeout))
}
