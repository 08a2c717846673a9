package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"askly/internal/config"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(config.LogConfig{Level: "info", Format: "json"}, &buf)
	l.Debug().Msg("hidden")
	l.Info().Str("document_id", "d1").Int("chunks", 3).Msg("Indexed document")

	line := buf.String()
	assert.NotContains(t, line, "hidden")
	assert.Equal(t, "Indexed document", gjson.Get(line, "message").String())
	assert.Equal(t, "d1", gjson.Get(line, "document_id").String())
	assert.Equal(t, int64(3), gjson.Get(line, "chunks").Int())
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(config.LogConfig{Level: "debug", Format: "console"}, &buf)
	l.Debug().Str("user_id", "u").Msg("Search on missing collection")
	assert.Contains(t, buf.String(), "Search on missing collection")
	assert.Contains(t, buf.String(), "user_id")
}
