package logging_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/packetgov/kernel/internal/logging"
)

func TestSelectLevel(t *testing.T) {
	t.Parallel()

	logger := logging.New(logging.Options{Verbose: true})
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())

	logger = logging.New(logging.Options{Quiet: true})
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	logger = logging.New(logging.Options{})
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestNew_HonorsKernelHomeOverride(t *testing.T) {
	t.Setenv("KERNEL_HOME", t.TempDir())

	logger := logging.New(logging.Options{})
	logger.Info().Msg("logger initializes without error")
}
