package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mezan-dz/mezand/internal/logging"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := logging.Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		config    logging.Config
		wantError bool
	}{
		{name: "json info", config: logging.Config{Level: "info", Format: "json"}, wantError: false},
		{name: "console debug", config: logging.Config{Level: "debug", Format: "console"}, wantError: false},
		{name: "bad level", config: logging.Config{Level: "loud", Format: "json"}, wantError: true},
		{name: "bad format", config: logging.Config{Level: "info", Format: "xml"}, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew(t *testing.T) {
	logger, err := logging.New(logging.Config{Level: "debug", Format: "console"})
	require.NoError(t, err)
	require.NotNil(t, logger)

	logger.Debug("test message")
	_ = logger.Sync() // stderr sync can fail on some platforms
}
