package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alp4ka/sloth/internal/config"
)

func Test_New(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Log
		level   logrus.Level
		wantErr bool
	}{
		{"defaults", config.Log{}, logrus.InfoLevel, false},
		{"debug text", config.Log{Level: "debug", Format: "text"}, logrus.DebugLevel, false},
		{"warn json", config.Log{Level: "warn", Format: "JSON"}, logrus.WarnLevel, false},
		{"bad level", config.Log{Level: "loud"}, 0, true},
		{"bad format", config.Log{Format: "xml"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg, &bytes.Buffer{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.level, l.GetLevel())
		})
	}
}

func Test_New_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(config.Log{Format: "json"}, &buf)
	require.NoError(t, err)

	l.WithField("namespace", "posts:published").Info("persisted page cursors")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "persisted page cursors", entry["msg"])
	assert.Equal(t, "posts:published", entry["namespace"])
	assert.Equal(t, "info", entry["level"])
}
