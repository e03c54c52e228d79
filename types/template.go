package types

import (
	"fmt"
	"strings"
)

// DefaultRoleExpr is the role-tag expression used when none is configured.
const DefaultRoleExpr = "<|sim-%s|>"

// ChatTemplate renders a message list into a single prompt string, tagging
// each message with its role, e.g. "<|sim-user|> hello".
type ChatTemplate struct {
	roleExpr string
}

// NewChatTemplate creates a template with the default role expression.
func NewChatTemplate() *ChatTemplate {
	return &ChatTemplate{roleExpr: DefaultRoleExpr}
}

// NewChatTemplateWithExpr creates a template with a custom role expression.
// The expression must contain a single %s verb for the role name.
func NewChatTemplateWithExpr(expr string) *ChatTemplate {
	if expr == "" {
		expr = DefaultRoleExpr
	}
	return &ChatTemplate{roleExpr: expr}
}

// RoleTag returns the tag for a role, e.g. "<|sim-assistant|>".
func (t *ChatTemplate) RoleTag(role Role) string {
	return fmt.Sprintf(t.roleExpr, role)
}

// Apply renders messages into a prompt, one "<tag> <content>" line per
// message.
func (t *ChatTemplate) Apply(msgs []Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(t.RoleTag(m.Role))
		b.WriteString(" ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
