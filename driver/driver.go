/*
LICENSE
  Copyright (C) 2026 the Playout project.

  This is free software: you can redistribute it and/or modify it
  under the terms of the GNU General Public License as published by
  the Free Software Foundation, either version 3 of the License, or
  (at your option) any later version.

  It is distributed in the hope that it will be useful,
  but WITHOUT ANY WARRANTY; without even the implied warranty of
  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
  GNU General Public License for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see http://www.gnu.org/licenses/.
*/

// Package driver runs the real-time playout loop: given a compiled
// timeline, it commands the player adapter to start, seek, and stop clip
// instances in wall-clock order, and watches for the player process
// exiting out from under it.
package driver

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/avplayout/playout/player"
	"github.com/avplayout/playout/schedule"
)

// DefaultPollingTime is the tick interval used when Driver.PollingTime is
// zero.
const DefaultPollingTime = 500 * time.Millisecond

// Watcher reports whether the external player process is still alive. The
// driver aborts as soon as it isn't.
type Watcher interface {
	Alive() bool
}

// AlwaysAlive is a Watcher that never reports failure, for configurations
// (and most tests) with no separate process to watch.
type AlwaysAlive struct{}

func (AlwaysAlive) Alive() bool { return true }

// Driver runs the tick loop described in §4.8 against a compiled,
// already-sorted timeline.
type Driver struct {
	Player      player.Player
	Watcher     Watcher
	PollingTime time.Duration
	Now         func() time.Time // defaults to time.Now; overridable for tests

	// Logf receives warnings (seek past duration, missed instances) without
	// aborting the run. Defaults to log.Printf.
	Logf func(format string, args ...interface{})

	pending []*schedule.ClipInstance
	onAir   *schedule.ClipInstance
	ids     map[*schedule.ClipInstance]string
}

// ErrPlayerExited is returned when Run aborts because Watcher.Alive()
// reported the player process gone.
var ErrPlayerExited = fmt.Errorf("driver: player process exited")

// Run drives timeline to completion or until ctx is cancelled. On any
// return path it issues a best-effort Stop() to the player before
// returning, per §5's cancellation contract.
func (d *Driver) Run(ctx context.Context, timeline schedule.Timeline) error {
	if d.PollingTime <= 0 {
		d.PollingTime = DefaultPollingTime
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logf == nil {
		d.Logf = log.Printf
	}
	if d.Watcher == nil {
		d.Watcher = AlwaysAlive{}
	}

	d.pending = append([]*schedule.ClipInstance(nil), timeline...)
	d.onAir = nil
	d.ids = make(map[*schedule.ClipInstance]string)

	defer func() {
		if err := d.Player.Stop(); err != nil {
			d.Logf("driver: stop on exit: %v", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	g.Go(func() error {
		return d.watchPlayer(gctx, done)
	})
	g.Go(func() error {
		defer close(done)
		return d.tickLoop(gctx)
	})

	return g.Wait()
}

// watchPlayer is the "launcher watch" cooperative task from §5: it polls
// Watcher.Alive() once per polling interval and aborts the group if the
// player process has exited.
func (d *Driver) watchPlayer(ctx context.Context, done <-chan struct{}) error {
	ticker := time.NewTicker(d.PollingTime)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !d.Watcher.Alive() {
				return ErrPlayerExited
			}
		}
	}
}

func (d *Driver) tickLoop(ctx context.Context) error {
	for {
		if err := d.tick(); err != nil {
			return err
		}
		if len(d.pending) == 0 && d.onAir == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(d.PollingTime):
		}
	}
}

// tick runs one iteration of the four-step loop in §4.8.
func (d *Driver) tick() error {
	now := d.Now()

	for len(d.pending) > 0 && d.pending[0].EndAt.Before(now) {
		missed := d.pending[0]
		d.Logf("driver: dropping missed instance %q (end_at %v before now)", missed.Path, missed.EndAt)
		d.pending = d.pending[1:]
	}

	if d.onAir != nil && !now.Before(d.onAir.EndAt) {
		if err := d.Player.Stop(); err != nil {
			d.Logf("driver: stop: %v", err)
		}
		d.onAir = nil
	}

	if len(d.pending) > 0 && !d.pending[0].StartAt.After(now) {
		next := d.pending[0]
		d.pending = d.pending[1:]

		id, err := d.Player.Enqueue(next.Path)
		if err != nil {
			d.Logf("driver: enqueue %q: %v", next.Path, err)
		} else {
			d.ids[next] = id
			seek := next.CursorStartAt + now.Sub(next.StartAt)
			seek = seek.Round(time.Second)
			if seek > next.Duration {
				d.Logf("driver: warning: seek %v exceeds duration %v for %q", seek, next.Duration, next.Path)
			}
			if err := d.Player.Play(id); err != nil {
				d.Logf("driver: play %q: %v", next.Path, err)
			}
			if err := d.Player.Seek(seek); err != nil {
				d.Logf("driver: seek %q: %v", next.Path, err)
			}
			if err := d.Player.Loop(next.Loop); err != nil {
				d.Logf("driver: loop %q: %v", next.Path, err)
			}
		}
		d.onAir = next
	}

	if d.onAir != nil {
		st, err := d.Player.Status()
		if err != nil {
			d.Logf("driver: status: %v", err)
		} else if st.State == player.StateStopped && d.onAir.EndAt.After(now) {
			// End-of-file before end-of-window (§4.8): if the clip isn't
			// set to loop, it stays "on air" silently until its window
			// ends naturally at step 2 of a later tick.
			if d.onAir.Loop {
				d.Logf("driver: warning: player stopped unexpectedly for looping clip %q", d.onAir.Path)
			}
		}
	}

	return nil
}
