package snapshot_sync

import (
	"testing"

	"github.com/meysamhadeli/focussync/snapshot_sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveHeadingPath(t *testing.T) {
	headings := []models.Heading{
		{Level: 1, Title: "A", StartLine: 0},
		{Level: 2, Title: "B", StartLine: 5},
		{Level: 1, Title: "C", StartLine: 10},
	}

	tests := []struct {
		name   string
		cursor int
		want   []string
	}{
		{"inside nested section", 7, []string{"A", "B"}},
		{"sibling closes previous section", 12, []string{"C"}},
		{"before first heading", -1, []string{}},
		{"on heading line", 5, []string{"A", "B"}},
		{"on top level heading", 0, []string{"A"}},
		{"just before sibling", 9, []string{"A", "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveHeadingPath(headings, tt.cursor))
		})
	}
}

func TestResolveHeadingPath_SkippedLevels(t *testing.T) {
	headings := []models.Heading{
		{Level: 1, Title: "Intro", StartLine: 0},
		{Level: 3, Title: "Deep", StartLine: 2},
		{Level: 2, Title: "Middle", StartLine: 4},
		{Level: 4, Title: "Deeper", StartLine: 6},
	}

	assert.Equal(t, []string{"Intro", "Deep"}, ResolveHeadingPath(headings, 3))
	// Level 2 pops the level 3 heading but keeps level 1.
	assert.Equal(t, []string{"Intro", "Middle"}, ResolveHeadingPath(headings, 5))
	assert.Equal(t, []string{"Intro", "Middle", "Deeper"}, ResolveHeadingPath(headings, 100))
}

func TestResolveHeadingPath_EmptyInput(t *testing.T) {
	got := ResolveHeadingPath(nil, 10)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestResolveHeadingPath_StrictlyIncreasingLevels(t *testing.T) {
	headings := []models.Heading{
		{Level: 2, Title: "a", StartLine: 1},
		{Level: 2, Title: "b", StartLine: 3},
		{Level: 3, Title: "c", StartLine: 4},
		{Level: 1, Title: "d", StartLine: 8},
		{Level: 5, Title: "e", StartLine: 9},
		{Level: 3, Title: "f", StartLine: 11},
		{Level: 6, Title: "g", StartLine: 12},
	}
	byTitle := make(map[string]models.Heading, len(headings))
	for _, h := range headings {
		byTitle[h.Title] = h
	}

	for cursor := -1; cursor < 15; cursor++ {
		path := ResolveHeadingPath(headings, cursor)
		for i := 1; i < len(path); i++ {
			assert.Less(t, byTitle[path[i-1]].Level, byTitle[path[i]].Level, "cursor %d path %v", cursor, path)
		}
		for _, title := range path {
			assert.LessOrEqual(t, byTitle[title].StartLine, cursor)
		}
	}
}
