package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/minopeef/prompting/protocol"
	"github.com/minopeef/prompting/testutil"
)

// collect drains a token stream into a chunk slice.
func collect(ts *TokenStream) []protocol.StreamChunk {
	var out []protocol.StreamChunk
	for {
		chunk, ok := ts.Next()
		if !ok {
			return out
		}
		out = append(out, chunk)
	}
}

func newTestStreamer(t *testing.T, batchSize int, clock Clock, delays DelaySource) *TokenStreamer {
	t.Helper()
	s := NewTokenStreamer(batchSize, clock, delays, zaptest.NewLogger(t))
	s.SetDelayFractions(0, 0)
	return s
}

func TestTokenStream_ExactChunkSequence(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock()
	s := newTestStreamer(t, 2, clock, testutil.NewScriptedDelays(0))

	chunks := collect(s.Stream("a b c d e", clock.Now(), time.Hour))

	require.Len(t, chunks, 3)
	assert.Equal(t, protocol.StreamChunk{Tokens: []string{"a", "b"}, More: true}, chunks[0])
	assert.Equal(t, protocol.StreamChunk{Tokens: []string{"c", "d"}, More: true}, chunks[1])
	assert.Equal(t, protocol.StreamChunk{Tokens: []string{"e"}, More: false}, chunks[2])
}

func TestTokenStream_EmptyBufferAfterLastFullBatch(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock()
	s := newTestStreamer(t, 2, clock, testutil.NewScriptedDelays(0))

	chunks := collect(s.Stream("a b c d", clock.Now(), time.Hour))

	// Token count divides the batch size exactly, so the stream ends
	// after the last full batch without a terminal chunk.
	require.Len(t, chunks, 2)
	assert.True(t, chunks[0].More)
	assert.True(t, chunks[1].More)
}

func TestTokenStream_EmptyPrompt(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock()
	s := newTestStreamer(t, 2, clock, testutil.NewScriptedDelays(0))

	assert.Empty(t, collect(s.Stream("", clock.Now(), time.Hour)))
	assert.Empty(t, collect(s.Stream("   ", clock.Now(), time.Hour)))
}

func TestTokenStream_TimeoutStopsIntakeNotFlush(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock()
	// Every elapsed-time read moves the clock 300ms, so the deadline
	// passes while the fourth token is being taken in.
	clock.SetTick(300 * time.Millisecond)
	s := newTestStreamer(t, 2, clock, testutil.NewScriptedDelays(0))

	chunks := collect(s.Stream("a b c d e f g h i j", clock.Now(), time.Second))

	require.Len(t, chunks, 2)
	assert.Equal(t, protocol.StreamChunk{Tokens: []string{"a", "b"}, More: true}, chunks[0])
	// The cutoff only stops intake; the partial buffer is still flushed
	// as the terminal chunk.
	assert.Equal(t, protocol.StreamChunk{Tokens: []string{"c", "d"}, More: false}, chunks[1])
}

func TestTokenStream_NonRestartable(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock()
	s := newTestStreamer(t, 2, clock, testutil.NewScriptedDelays(0))

	ts := s.Stream("a b c", clock.Now(), time.Hour)
	collect(ts)

	_, ok := ts.Next()
	assert.False(t, ok, "exhausted stream must stay exhausted")
}

func TestTokenStream_FaultFlushesPartialBuffer(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock()
	s := NewTokenStreamer(2, clock, testutil.PanicDelays{}, zaptest.NewLogger(t))

	ts := s.Stream("a b c d", clock.Now(), time.Hour)

	// The delay source faults when the first batch fills. The fault is
	// logged, intake ends, and the buffer drains as the terminal chunk.
	chunk, ok := ts.Next()
	require.True(t, ok)
	assert.Equal(t, protocol.StreamChunk{Tokens: []string{"a", "b"}, More: false}, chunk)

	_, ok = ts.Next()
	assert.False(t, ok)
}

func TestTokenStream_BatchDelayScalesWithTimeout(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock()
	s := NewTokenStreamer(2, clock, testutil.NewScriptedDelays(0.5), zaptest.NewLogger(t))

	start := clock.Now()
	ts := s.Stream("a b", start, 10*time.Second)

	chunk, ok := ts.Next()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, chunk.Tokens)

	// Delay fraction 0.2 + 0.5*(0.5-0.2) = 0.35 of the 10s timeout.
	elapsed := clock.Now().Sub(start)
	assert.Equal(t, 3500*time.Millisecond, elapsed)
}
