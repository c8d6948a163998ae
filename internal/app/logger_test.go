package app

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charlesng35/resumex/pkg/logger"
)

func TestConfigureLogging(t *testing.T) {
	t.Cleanup(logger.Replace(zap.NewNop()))

	require.NoError(t, ConfigureLogging("debug", "development"))
	require.True(t, logger.Logger().Core().Enabled(zap.DebugLevel))

	require.NoError(t, ConfigureLogging("", "Production"))
	require.False(t, logger.Logger().Core().Enabled(zap.DebugLevel))
}
