package anthropic

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"askly/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("ASKLY_ANTHROPIC_TEST_KEY", "test-key")
	c, err := NewClient(Config{BaseURL: srv.URL, APIKeyEnv: "ASKLY_ANTHROPIC_TEST_KEY", MaxTokens: 300})
	require.NoError(t, err)
	return c
}

func TestCompleteSendsSystemAndTurns(t *testing.T) {
	var body string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-latest",
			"content":[{"type":"text","text":"  The total is $452.10 [Document 1]. "}],
			"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":8}}`)
	})

	out, err := c.Complete(context.Background(), []domain.Message{
		{Role: domain.RoleSystem, Content: "Answer from context."},
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
		{Role: domain.RoleUser, Content: "What is the total?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "The total is $452.10 [Document 1].", out)

	assert.Equal(t, "claude-3-5-haiku-latest", gjson.Get(body, "model").String())
	assert.Equal(t, int64(300), gjson.Get(body, "max_tokens").Int())
	assert.InDelta(t, 0.7, gjson.Get(body, "temperature").Float(), 1e-9)
	assert.Equal(t, "Answer from context.", gjson.Get(body, "system.0.text").String())
	assert.Equal(t, int64(3), gjson.Get(body, "messages.#").Int())
	assert.Equal(t, "assistant", gjson.Get(body, "messages.1.role").String())
	assert.Equal(t, "What is the total?", gjson.Get(body, "messages.2.content.0.text").String())
}

func TestCompleteWrapsProviderErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`)
	})
	_, err := c.Complete(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "q"}})
	assert.ErrorIs(t, err, domain.ErrModelProvider)

	_, err = c.Complete(context.Background(), []domain.Message{{Role: domain.RoleSystem, Content: "only"}})
	assert.ErrorIs(t, err, domain.ErrModelProvider)
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Setenv("ASKLY_ANTHROPIC_TEST_KEY", "")
	_, err := NewClient(Config{APIKeyEnv: "ASKLY_ANTHROPIC_TEST_KEY"})
	assert.ErrorContains(t, err, "ASKLY_ANTHROPIC_TEST_KEY")
}
