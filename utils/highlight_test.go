package utils

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderJSON_Highlighted(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, RenderJSON(&buf, []byte("{\n  \"activeFolderPath\": \"notes\"\n}\n"), "", false))

	assert.Contains(t, buf.String(), "activeFolderPath")
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestRenderJSON_Plain(t *testing.T) {
	var buf bytes.Buffer
	content := []byte(`{"a":1}`)

	require.NoError(t, RenderJSON(&buf, content, "monokai", true))

	assert.Equal(t, content, buf.Bytes())
}

func TestRenderJSONWithContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer

	err := RenderJSONWithContext(ctx, &buf, []byte("{}\n"), "dracula", false)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}
