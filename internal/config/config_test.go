package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 7700, cfg.Port)
	assert.Equal(t, "owner", cfg.Owner)
	assert.Equal(t, 10, cfg.Workers)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := defaults()
	cfg.Port = 0
	assert.Error(t, cfg.Validate())
}

func TestLoadMissingFileIsNotFatal(t *testing.T) {
	_, err := Load("/nonexistent/path/to/config.yaml", nil)
	require.NoError(t, err)
}
