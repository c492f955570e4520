package config_test

import (
	"testing"

	"github.com/cccrawl/crawler/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_RequiresMongoURI(t *testing.T) {
	_, err := config.NewBuilder().Build()
	assert.Error(t, err)
}

func TestBuild_DefaultsDatabaseNameToDev(t *testing.T) {
	cfg, err := config.NewBuilder().WithMongoURI("mongodb://localhost:27017").Build()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.DatabaseName)
}

func TestBuild_OverridesDatabaseName(t *testing.T) {
	cfg, err := config.NewBuilder().
		WithMongoURI("mongodb://localhost:27017").
		WithDatabaseName("prod").
		Build()
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.DatabaseName)
}

func TestHasCSESCredentials(t *testing.T) {
	cfg, err := config.NewBuilder().WithMongoURI("mongodb://localhost:27017").Build()
	require.NoError(t, err)
	assert.False(t, cfg.HasCSESCredentials())

	cfg, err = config.NewBuilder().
		WithMongoURI("mongodb://localhost:27017").
		WithCSESCredentials("alice", "secret").
		Build()
	require.NoError(t, err)
	assert.True(t, cfg.HasCSESCredentials())
}

func TestDefaultRateLimits_MatchSpec(t *testing.T) {
	cfg, err := config.NewBuilder().WithMongoURI("mongodb://localhost:27017").Build()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.CodeforcesAPILimit.Calls)
	assert.Equal(t, 1, cfg.CodeforcesHTMLLimit.Calls)
	assert.Equal(t, 3, cfg.CSESLimit.Calls)
}
