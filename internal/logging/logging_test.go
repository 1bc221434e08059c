package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer

	quiet := New(&buf, false)
	quiet.Debug().Msg("hidden")
	assert.Empty(t, buf.String())

	quiet.Info().Str("request_id", "abc").Msg("sent")
	assert.Contains(t, buf.String(), `"request_id":"abc"`)

	buf.Reset()
	loud := New(&buf, true)
	loud.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "chatpanel.log")

	logger, closeFn, err := OpenFile(path, false)
	require.NoError(t, err)
	logger.Info().Msg("hello")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestNop(t *testing.T) {
	logger := Nop()
	assert.NotPanics(t, func() { logger.Error().Msg("ignored") })
}
