package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	Configure(nil)
	t.Cleanup(func() {
		SetLogger(nil)
		Configure(nil)
	})
	return logs
}

func TestGet_RoutesThroughNamedLogger(t *testing.T) {
	logs := observe(t)

	Catalog("scanned %d files", 3)
	SynthDebug("classified %s", "foo")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "catalog", entries[0].LoggerName)
	assert.Equal(t, "scanned 3 files", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "synth", entries[1].LoggerName)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
}

func TestConfigure_DisablesCategory(t *testing.T) {
	logs := observe(t)
	Configure(map[string]bool{"watch": false, "emit": true})

	assert.False(t, IsCategoryEnabled(CategoryWatch))
	assert.True(t, IsCategoryEnabled(CategoryEmit))
	assert.True(t, IsCategoryEnabled(CategoryLedger), "unlisted categories stay enabled")

	Watch("ignored")
	Emit("kept")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0].Message)
}

func TestWith_AddsFields(t *testing.T) {
	logs := observe(t)

	Get(CategoryPipeline).With("submodule", "signal").Warn("rejected %s", "bar")

	entries := logs.FilterField(zap.String("submodule", "signal")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "rejected bar", entries[0].Message)
}

func TestTimer(t *testing.T) {
	logs := observe(t)

	timer := StartTimer(CategoryPipeline, "generate")
	elapsed := timer.StopWithInfo()

	assert.GreaterOrEqual(t, int64(elapsed), int64(0))
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "generate completed in")
}
