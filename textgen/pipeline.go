// Package textgen provides a text-generation stand-in: a pipeline that
// "generates" a fixed phrase as the assistant reply, regardless of input.
// The simulated transport only needs a string to stream; correctness of the
// content is out of scope.
package textgen

import (
	"strings"

	"go.uber.org/zap"

	"github.com/minopeef/prompting/types"
)

// DefaultPhrase is the completion produced when no phrase is configured.
const DefaultPhrase = "Simulated model output"

// Generator produces an assistant reply for a message list.
type Generator interface {
	Generate(msgs []types.Message) string
}

// Pipeline is an echo model: forward emits the configured phrase behind an
// assistant role tag, and postprocessing strips the tag back off.
type Pipeline struct {
	phrase   string
	template *types.ChatTemplate
	logger   *zap.Logger
}

// NewPipeline creates a pipeline echoing phrase. An empty phrase falls back
// to DefaultPhrase; a nil logger falls back to a nop logger.
func NewPipeline(phrase string, logger *zap.Logger) *Pipeline {
	if phrase == "" {
		phrase = DefaultPhrase
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		phrase:   phrase,
		template: types.NewChatTemplate(),
		logger:   logger,
	}
}

// Phrase returns the configured echo phrase.
func (p *Pipeline) Phrase() string { return p.phrase }

// Template returns the chat template used for role tagging.
func (p *Pipeline) Template() *types.ChatTemplate { return p.template }

// Generate runs the echo model over msgs and returns the post-processed
// completion text.
func (p *Pipeline) Generate(msgs []types.Message) string {
	return p.postprocess(p.forward(msgs))
}

// forward emits the raw model output: the assistant role tag followed by
// the phrase.
func (p *Pipeline) forward(_ []types.Message) string {
	return p.template.RoleTag(types.RoleAssistant) + " " + p.phrase
}

// postprocess strips everything up to and including the assistant role tag.
func (p *Pipeline) postprocess(out string) string {
	tag := p.template.RoleTag(types.RoleAssistant)
	parts := strings.Split(out, tag)
	return strings.TrimSpace(parts[len(parts)-1])
}
