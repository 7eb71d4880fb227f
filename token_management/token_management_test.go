package token_management

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountTokens(t *testing.T) {
	tm := NewTokenManager()

	assert.Equal(t, 0, tm.CountTokens(""))
	assert.Equal(t, 1, tm.CountTokens("ab"))
	assert.Equal(t, 250, tm.CountTokens(strings.Repeat("a", 1000)))
	// Runes, not bytes.
	assert.Equal(t, 2, tm.CountTokens(strings.Repeat("é", 8)))
}

func TestTrackArtifact_AccumulatesUsage(t *testing.T) {
	tm := NewTokenManager()

	assert.Equal(t, 10, tm.TrackArtifact([]byte(strings.Repeat("x", 40))))
	assert.Equal(t, 5, tm.TrackArtifact([]byte(strings.Repeat("y", 20))))

	last, total, artifacts := tm.GetCurrentTokenUsage()
	assert.Equal(t, 5, last)
	assert.Equal(t, 15, total)
	assert.Equal(t, 2, artifacts)

	tm.ClearToken()
	last, total, artifacts = tm.GetCurrentTokenUsage()
	assert.Zero(t, last)
	assert.Zero(t, total)
	assert.Zero(t, artifacts)
}
