package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONEnvironments(t *testing.T) {
	tests := []struct {
		name       string
		env        string
		debugShown bool
	}{
		{name: "dev пишет debug", env: envDev, debugShown: true},
		{name: "prod пропускает debug", env: envProd, debugShown: false},
		{name: "неизвестное окружение как prod", env: "staging", debugShown: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(tt.env, &buf)

			log.Debug("debug message")
			log.Info("license issued", slog.String("license_type", "trial"))

			lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
			if tt.debugShown {
				require.Len(t, lines, 2)
			} else {
				require.Len(t, lines, 1)
			}

			var entry map[string]any
			require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
			assert.Equal(t, "license issued", entry["msg"])
			assert.Equal(t, "trial", entry["license_type"])
		})
	}
}

func TestNew_LocalUsesTextHandler(t *testing.T) {
	var buf bytes.Buffer
	log := New(envLocal, &buf)

	assert.True(t, log.Enabled(context.Background(), slog.LevelDebug))
	log.Info("server started")

	assert.Contains(t, buf.String(), "server started")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
