package veto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeTeamNameTrimsAndStripsControlChars(t *testing.T) {
	name, err := SanitizeTeamName("  Team\tRocket\x00  ")
	require.NoError(t, err)
	assert.Equal(t, "TeamRocket", name)
}

func TestSanitizeTeamNameCapsLength(t *testing.T) {
	raw := strings.Repeat("a", MaxTeamNameLen+10)
	name, err := SanitizeTeamName(raw)
	require.NoError(t, err)
	assert.Len(t, name, MaxTeamNameLen)
}

func TestSanitizeTeamNameRejectsEmptyResult(t *testing.T) {
	_, err := SanitizeTeamName("   \x00\x01  ")
	assert.Error(t, err)
}
