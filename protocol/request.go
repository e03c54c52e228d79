// Package protocol defines the wire-shaped types exchanged over the
// simulated transport: requests for the two call kinds, the terminal
// response record, and streamed token chunks. No binary encoding exists
// because no real network transport exists; these are in-process values.
package protocol

import (
	"time"

	"github.com/google/uuid"

	"github.com/minopeef/prompting/types"
)

// Kind distinguishes the two interaction modes a request can drive.
type Kind string

const (
	// KindUnary is a single-shot request/response exchange.
	KindUnary Kind = "unary"
	// KindStream is a progressively-chunked exchange.
	KindStream Kind = "stream"
)

// Endpoint identifies one simulated serving node. The transport treats it
// as an opaque, read-only descriptor.
type Endpoint struct {
	UID     int    `json:"uid"`
	Hotkey  string `json:"hotkey,omitempty"`
	Address string `json:"address"`
}

// Envelope carries the fields shared by both request kinds. Endpoint is
// empty on a template and filled in on the per-target clone at dispatch.
type Envelope struct {
	TraceID  string          `json:"trace_id"`
	Messages []types.Message `json:"messages"`
	Timeout  time.Duration   `json:"timeout,omitempty"`
	Endpoint Endpoint        `json:"endpoint,omitempty"`
}

// Prompt returns the content of the last message, or "" when there is none.
// Streaming calls echo this prompt back token by token.
func (e *Envelope) Prompt() string {
	if len(e.Messages) == 0 {
		return ""
	}
	return e.Messages[len(e.Messages)-1].Content
}

func (e *Envelope) clone() Envelope {
	out := *e
	out.Messages = types.CloneMessages(e.Messages)
	return out
}

// Request is one dispatchable request template. Exactly two concrete kinds
// exist; the dispatcher checks the kind against its streaming mode before
// any target is queried.
type Request interface {
	Kind() Kind
	Envelope() *Envelope
	Clone() Request
}

// PromptRequest is the unary request kind.
type PromptRequest struct {
	Env Envelope `json:"envelope"`
}

// NewPromptRequest builds a unary request template with a fresh trace ID.
func NewPromptRequest(msgs []types.Message, timeout time.Duration) *PromptRequest {
	return &PromptRequest{Env: Envelope{
		TraceID:  uuid.NewString(),
		Messages: types.CloneMessages(msgs),
		Timeout:  timeout,
	}}
}

func (r *PromptRequest) Kind() Kind          { return KindUnary }
func (r *PromptRequest) Envelope() *Envelope { return &r.Env }

// Clone returns a deep copy suitable for per-target mutation.
func (r *PromptRequest) Clone() Request {
	return &PromptRequest{Env: r.Env.clone()}
}

// StreamPromptRequest is the streaming request kind.
type StreamPromptRequest struct {
	Env Envelope `json:"envelope"`
}

// NewStreamPromptRequest builds a streaming request template with a fresh
// trace ID.
func NewStreamPromptRequest(msgs []types.Message, timeout time.Duration) *StreamPromptRequest {
	return &StreamPromptRequest{Env: Envelope{
		TraceID:  uuid.NewString(),
		Messages: types.CloneMessages(msgs),
		Timeout:  timeout,
	}}
}

func (r *StreamPromptRequest) Kind() Kind          { return KindStream }
func (r *StreamPromptRequest) Envelope() *Envelope { return &r.Env }

// Clone returns a deep copy suitable for per-target mutation.
func (r *StreamPromptRequest) Clone() Request {
	return &StreamPromptRequest{Env: r.Env.clone()}
}
