package driver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avplayout/playout/player"
	"github.com/avplayout/playout/schedule"
)

// testClock is a Now func that advances by a fixed virtual step on every
// call, decoupling scheduling logic from wall-clock sleeps so tests run
// fast regardless of PollingTime.
type testClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func mkInstance(path string, start, end time.Time, dur, cursorStart time.Duration, loop bool) *schedule.ClipInstance {
	return &schedule.ClipInstance{
		Source:        &schedule.Source{},
		Path:          path,
		StartAt:       start,
		EndAt:         end,
		Duration:      dur,
		PlayDuration:  end.Sub(start),
		CursorStartAt: cursorStart,
		Loop:          loop,
	}
}

func TestTickDropsMissedInstance(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fake := player.NewFake()
	d := &Driver{Player: fake, Now: func() time.Time { return base.Add(10 * time.Second) }, Logf: func(string, ...interface{}) {}}
	d.pending = []*schedule.ClipInstance{
		mkInstance("missed.mp4", base, base.Add(time.Second), time.Second, 0, false),
		mkInstance("b.mp4", base.Add(20*time.Second), base.Add(25*time.Second), 5*time.Second, 0, false),
	}
	d.ids = make(map[*schedule.ClipInstance]string)

	require.NoError(t, d.tick())
	require.Len(t, d.pending, 1)
	assert.Equal(t, "b.mp4", d.pending[0].Path)
	assert.Nil(t, d.onAir)
}

func TestTickStartsInstanceAndSeeks(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fake := player.NewFake()
	d := &Driver{Player: fake, Now: func() time.Time { return base.Add(3 * time.Second) }, Logf: func(string, ...interface{}) {}}
	d.pending = []*schedule.ClipInstance{
		mkInstance("a.mp4", base, base.Add(10*time.Second), 10*time.Second, 0, false),
	}
	d.ids = make(map[*schedule.ClipInstance]string)

	require.NoError(t, d.tick())
	require.NotNil(t, d.onAir)
	assert.Equal(t, "a.mp4", d.onAir.Path)
	assert.Empty(t, d.pending)
	assert.Contains(t, fake.Calls, "enqueue:a.mp4")
	assert.Contains(t, fake.Calls, "play:1")
	assert.Contains(t, fake.Calls, "seek:3s")
}

func TestTickEndsWindowOnTime(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fake := player.NewFake()
	d := &Driver{Player: fake, Logf: func(string, ...interface{}) {}}
	inst := mkInstance("a.mp4", base, base.Add(5*time.Second), 5*time.Second, 0, false)
	d.onAir = inst
	d.ids = map[*schedule.ClipInstance]string{inst: "1"}
	d.Now = func() time.Time { return base.Add(5 * time.Second) }

	require.NoError(t, d.tick())
	assert.Nil(t, d.onAir)
	assert.Contains(t, fake.Calls, "stop")
}

func TestRunSequentialTimeline(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	timeline := schedule.Timeline{
		mkInstance("a.mp4", base, base.Add(2*time.Second), 2*time.Second, 0, false),
		mkInstance("b.mp4", base.Add(2*time.Second), base.Add(4*time.Second), 2*time.Second, 0, false),
	}

	fake := player.NewFake()
	clock := &testClock{t: base, step: time.Second}
	d := &Driver{
		Player:      fake,
		PollingTime: time.Millisecond,
		Now:         clock.Now,
		Logf:        func(string, ...interface{}) {},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := d.Run(ctx, timeline)
	require.NoError(t, err)

	assert.Contains(t, fake.Calls, "enqueue:a.mp4")
	assert.Contains(t, fake.Calls, "enqueue:b.mp4")
	st, _ := fake.Status()
	assert.Equal(t, player.StateStopped, st.State)
}

type deadAfter struct {
	mu    sync.Mutex
	calls int
	limit int
}

func (d *deadAfter) Alive() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return d.calls <= d.limit
}

func TestRunAbortsWhenPlayerExits(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	// A timeline that would otherwise never finish on its own.
	timeline := schedule.Timeline{
		mkInstance("a.mp4", base, base.Add(time.Hour), time.Hour, 0, false),
	}

	fake := player.NewFake()
	clock := &testClock{t: base, step: time.Millisecond}
	d := &Driver{
		Player:      fake,
		Watcher:     &deadAfter{limit: 2},
		PollingTime: time.Millisecond,
		Now:         clock.Now,
		Logf:        func(string, ...interface{}) {},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := d.Run(ctx, timeline)
	assert.ErrorIs(t, err, ErrPlayerExited)
}
