package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresStreamlabsCredentials(t *testing.T) {
	t.Setenv("STREAMLABS_CLIENT_ID", "")
	t.Setenv("STREAMLABS_CLIENT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STREAMLABS_CLIENT_ID")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STREAMLABS_CLIENT_ID", "id")
	t.Setenv("STREAMLABS_CLIENT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 15, cfg.ManualFollowerCount)
	assert.Equal(t, 200, cfg.GoalTarget)
	assert.Equal(t, "alpha_bit", cfg.TwitchUsername)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.HasTwitchCredentials())
}

func TestLoad_RejectsNonPositiveTarget(t *testing.T) {
	t.Setenv("STREAMLABS_CLIENT_ID", "id")
	t.Setenv("STREAMLABS_CLIENT_SECRET", "secret")
	t.Setenv("GOAL_TARGET", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOAL_TARGET")
}

func TestLoad_RejectsNegativeManualCount(t *testing.T) {
	t.Setenv("STREAMLABS_CLIENT_ID", "id")
	t.Setenv("STREAMLABS_CLIENT_SECRET", "secret")
	t.Setenv("MANUAL_FOLLOWER_COUNT", "-1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MANUAL_FOLLOWER_COUNT")
}

func TestHasTwitchCredentials(t *testing.T) {
	cfg := &Config{TwitchClientID: "a", TwitchClientSecret: "b"}
	assert.True(t, cfg.HasTwitchCredentials())

	cfg.TwitchClientSecret = ""
	assert.False(t, cfg.HasTwitchCredentials())
}
