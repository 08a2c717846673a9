package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"askly/internal/domain"
)

func TestSplitSystem(t *testing.T) {
	system, turns := SplitSystem([]domain.Message{
		{Role: domain.RoleSystem, Content: "rules"},
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleSystem, Content: "context"},
		{Role: domain.RoleAssistant, Content: "hello"},
	})
	assert.Equal(t, "rules\n\ncontext", system)
	assert.Equal(t, []domain.Message{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
	}, turns)
}
