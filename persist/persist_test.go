package persist

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avplayout/playout/schedule"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:00:00", formatDuration(0))
	assert.Equal(t, "1:02:03", formatDuration(time.Hour+2*time.Minute+3*time.Second))
	assert.Equal(t, "0:00:01.500000", formatDuration(time.Second+500*time.Millisecond))
}

func TestFormatInstant(t *testing.T) {
	tm := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, "2026-03-04T05:06:07Z", formatInstant(tm))
}

func TestParseDurationRoundTrip(t *testing.T) {
	cases := []time.Duration{
		0,
		time.Hour + 2*time.Minute + 3*time.Second,
		time.Second + 500*time.Millisecond,
	}
	for _, d := range cases {
		got, err := parseDuration(formatDuration(d))
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
}

func TestWriteAllThenLoadTimelineRoundTrip(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &schedule.Source{Priority: 10}
	tl := schedule.Timeline{
		{
			Source:        src,
			Path:          "a.mp4",
			StartAt:       base,
			EndAt:         base.Add(10 * time.Second),
			Duration:      20 * time.Second,
			PlayDuration:  10 * time.Second,
			CursorStartAt: 0,
			CursorEndAt:   10 * time.Second,
			Loop:          true,
		},
	}

	dir := t.TempDir()
	p := &Persistor{OutDir: dir, OutPriorityLevel: 100}
	require.NoError(t, p.WriteAll(context.Background(), tl))

	loaded, err := LoadTimeline(filepath.Join(dir, FullFileName))
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	assert.Equal(t, "a.mp4", loaded[0].Path)
	assert.True(t, loaded[0].StartAt.Equal(base))
	assert.True(t, loaded[0].EndAt.Equal(base.Add(10*time.Second)))
	assert.Equal(t, 20*time.Second, loaded[0].Duration)
	assert.Equal(t, 10*time.Second, loaded[0].PlayDuration)
	assert.Equal(t, 10, loaded[0].Priority())
	assert.True(t, loaded[0].Loop)

	_, err = os.Stat(filepath.Join(dir, FilteredYAMLName))
	require.NoError(t, err)
}

func TestWriteAllStampsHeaderCommentAndStillLoads(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tl := schedule.Timeline{
		{
			Source:  &schedule.Source{Priority: 10},
			Path:    "a.mp4",
			StartAt: base,
			EndAt:   base.Add(10 * time.Second),
		},
	}

	dir := t.TempDir()
	p := &Persistor{OutDir: dir, OutPriorityLevel: 100, HeaderComment: "evening news; weather"}
	require.NoError(t, p.WriteAll(context.Background(), tl))

	data, err := os.ReadFile(filepath.Join(dir, FullFileName))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# evening news; weather\n"))

	loaded, err := LoadTimeline(filepath.Join(dir, FullFileName))
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "a.mp4", loaded[0].Path)
}
