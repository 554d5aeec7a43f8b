package log_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	applog "alugserv/internal/log"
)

func TestNewWritesJSONFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	l, err := applog.New(applog.Options{Level: "warn", File: file})
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("shown", zap.String("who", "tester"))
	_ = l.Sync()

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "hidden")
	line := gjson.ParseBytes(b)
	assert.Equal(t, "shown", line.Get("msg").String())
	assert.Equal(t, "tester", line.Get("who").String())
	assert.True(t, line.Get("ts").Exists())
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := applog.New(applog.Options{Level: "loud"})
	assert.Error(t, err)
}

func TestSetLoggerRestores(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := applog.SetLogger(zap.New(core))

	applog.Audit(nil, "catalog.export", map[string]any{"rows": 3})
	applog.Security(nil, "access.denied.admin", nil)
	restore()
	applog.Info(nil, "after.restore", nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, map[string]any{"rows": 3, "audit": true}, entries[0].ContextMap()["fields"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "access.denied.admin", entries[1].ContextMap()["action"])
}
