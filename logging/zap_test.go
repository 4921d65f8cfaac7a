package logging

import (
	"context"
	"testing"

	auth "github.com/goliatone/go-auth-token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_KeyValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := New(zap.New(core))

	logger.Debug("signing key resolved", "kid", "b3-0011")
	logger.Error("cluster id resolution failed", "error", "timeout")

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "signing key resolved", entries[0].Message)
	assert.Equal(t, "b3-0011", entries[0].ContextMap()["kid"])
	assert.Equal(t, "auth", entries[0].LoggerName)

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "timeout", entries[1].ContextMap()["error"])
}

func TestLogger_WiredIntoProvider(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	provider := auth.NewSigningKeyProvider(nil, New(zap.New(core)))

	_, err := provider.Key(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("signing key factory is not configured").Len())
}

func TestNewZap(t *testing.T) {
	l, err := NewZap("debug")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = NewZap("not-a-level")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
}

func TestNew_Nil(t *testing.T) {
	assert.NotPanics(t, func() {
		New(nil).Info("ignored", "k", "v")
	})
}
