package model_test

import (
	"testing"

	"github.com/cccrawl/crawler/internal/model"
	"github.com/cccrawl/crawler/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCodeforcesIntegration_LowercasesHandle(t *testing.T) {
	i, err := model.NewCodeforcesIntegration("Tourist")
	require.NoError(t, err)
	assert.Equal(t, platform.Codeforces, i.Platform)
	assert.Equal(t, "tourist", i.Codeforces.Handle)
}

func TestNewCodeforcesIntegration_RejectsBadLength(t *testing.T) {
	_, err := model.NewCodeforcesIntegration("ab")
	assert.Error(t, err)

	_, err = model.NewCodeforcesIntegration(string(make([]byte, 31)))
	assert.Error(t, err)
}

func TestNewCodeforcesIntegration_IdentityStable(t *testing.T) {
	a, err1 := model.NewCodeforcesIntegration("tourist")
	b, err2 := model.NewCodeforcesIntegration("TOURIST")
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, a.ID, b.ID)
}

func TestNewCodeforcesIntegration_DifferentHandlesDifferentIDs(t *testing.T) {
	a, _ := model.NewCodeforcesIntegration("tourist")
	b, _ := model.NewCodeforcesIntegration("benq")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestNewCSESIntegration_ValidatesUserNumberRange(t *testing.T) {
	_, err := model.NewCSESIntegration(0, "alice")
	assert.Error(t, err)

	_, err = model.NewCSESIntegration(10_000_001, "alice")
	assert.Error(t, err)

	_, err = model.NewCSESIntegration(89310, "alice")
	assert.NoError(t, err)
}

func TestNewCSESIntegration_TrimsHandle(t *testing.T) {
	i, err := model.NewCSESIntegration(89310, "  alice  ")
	require.NoError(t, err)
	assert.Equal(t, "alice", i.CSES.Handle)
}

func TestNewCSESIntegration_IdentityDependsOnlyOnUserNumber(t *testing.T) {
	a, err1 := model.NewCSESIntegration(89310, "alice")
	b, err2 := model.NewCSESIntegration(89310, "alice-renamed")
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, a.ID, b.ID)
}

func TestIntegrations_CrossPlatformIDsDoNotCollide(t *testing.T) {
	cf, _ := model.NewCodeforcesIntegration("abc")
	cses, _ := model.NewCSESIntegration(1, "x")
	assert.NotEqual(t, cf.ID, cses.ID)
}
