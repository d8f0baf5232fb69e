package logx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/whatsapp-bot/server/internal/core"
)

func TestInit_ProductionWritesJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	Init(LoggerOpts{Environment: core.Production, Output: &buf})
	t.Cleanup(func() { Init() })

	Debug().Msg("hidden")
	Info().Str("user_id", "123").Msg("visible")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, `"user_id":"123"`)
	require.Contains(t, out, `"env":"production"`)
}

func TestInit_LevelOverride(t *testing.T) {
	var buf bytes.Buffer
	Init(LoggerOpts{Environment: core.Development, Level: "warn", Output: &buf})
	t.Cleanup(func() { Init() })

	Info().Msg("quiet")
	Warn().Msg("loud")

	require.NotContains(t, buf.String(), "quiet")
	require.Contains(t, buf.String(), "loud")
}
