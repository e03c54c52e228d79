package protocol

import "time"

// Status codes set by the simulated transport. No other values are ever
// produced.
const (
	StatusOK      = 200
	StatusTimeout = 408
)

// Response is the terminal record of one call to one target. Exactly one
// simulator instance writes to a given Response; it is never shared across
// targets.
type Response struct {
	Completion    string        `json:"completion"`
	StatusCode    int           `json:"status_code"`
	StatusMessage string        `json:"status_message"`
	ProcessTime   time.Duration `json:"process_time"`
}

// TimedOut reports whether the call ended in the timeout outcome. A timeout
// is a normal terminal state, not an error.
func (r *Response) TimedOut() bool { return r.StatusCode == StatusTimeout }

// StreamChunk is one batch of tokens emitted during a streaming call. More
// is false only on the final chunk; that chunk is the end-of-stream signal.
type StreamChunk struct {
	Tokens []string `json:"tokens"`
	More   bool     `json:"more"`
}
