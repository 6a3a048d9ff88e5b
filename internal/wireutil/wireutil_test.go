package wireutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimal_EmptyStringIsZero(t *testing.T) {
	d, err := ParseDecimal("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())
}

func TestLevelFromStrings_ValidPair(t *testing.T) {
	lvl, err := LevelFromStrings("100.5", "2.25")
	require.NoError(t, err)
	assert.Equal(t, "100.5", lvl.Price.String())
	assert.Equal(t, "2.25", lvl.Quantity.String())
}

func TestLevelFromStrings_MalformedPriceErrors(t *testing.T) {
	_, err := LevelFromStrings("not-a-number", "1")
	assert.Error(t, err)
}

func TestLevelsFromPairs_SkipsMalformedRows(t *testing.T) {
	rows := [][]string{
		{"100", "1"},
		{"bad"}, // too short
		{"101", "not-a-number"},
		{"102", "2"},
	}
	out := LevelsFromPairs(rows)
	require.Len(t, out, 2)
	assert.Equal(t, "100", out[0].Price.String())
	assert.Equal(t, "102", out[1].Price.String())
}
