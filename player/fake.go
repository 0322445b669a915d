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

package player

import (
	"fmt"
	"sync"
	"time"
)

// Fake is an in-memory Player for driver tests: it records every command
// issued and never touches the network.
type Fake struct {
	mu sync.Mutex

	nextID  int
	ids     map[string]string
	current string
	status  Status

	Calls []string
}

// NewFake returns a Fake player in the stopped state.
func NewFake() *Fake {
	return &Fake{
		ids:    make(map[string]string),
		status: Status{State: StateStopped},
	}
}

func (f *Fake) Enqueue(path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.ids[path]; ok {
		return id, nil
	}
	f.nextID++
	id := fmt.Sprintf("%d", f.nextID)
	f.ids[path] = id
	f.Calls = append(f.Calls, "enqueue:"+path)
	return id, nil
}

func (f *Fake) Play(playlistID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = playlistID
	f.status.State = StatePlaying
	f.status.Time = 0
	f.Calls = append(f.Calls, "play:"+playlistID)
	return nil
}

func (f *Fake) Seek(d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.Time = d
	f.Calls = append(f.Calls, fmt.Sprintf("seek:%s", d))
	return nil
}

func (f *Fake) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.State = StatePaused
	f.Calls = append(f.Calls, "pause")
	return nil
}

func (f *Fake) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.State = StateStopped
	f.current = ""
	f.Calls = append(f.Calls, "stop")
	return nil
}

func (f *Fake) Loop(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, fmt.Sprintf("loop:%v", on))
	return nil
}

func (f *Fake) Repeat(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, fmt.Sprintf("repeat:%v", on))
	return nil
}

func (f *Fake) Status() (Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

// Advance moves the fake player's reported playback position forward, as
// if d had elapsed during playback. Tests use this to simulate the tick
// loop observing progress.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status.State == StatePlaying {
		f.status.Time += d
	}
}
