// Package llm holds helpers shared by the language model providers.
package llm

import (
	"strings"

	"askly/internal/domain"
)

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
)

// SplitSystem separates system messages from the conversation turns. Several
// providers take the system prompt as a dedicated parameter.
func SplitSystem(messages []domain.Message) (string, []domain.Message) {
	var system []string
	turns := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	return strings.Join(system, "\n\n"), turns
}
