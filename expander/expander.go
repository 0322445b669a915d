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

// Package expander expands plan sources into concrete clip instances,
// honoring cadence, sequential flow, source/plan windows, and
// loop-to-end-at, and pushes them into a priority queue for the resolver.
package expander

import (
	"fmt"
	"log"
	"time"

	"github.com/avplayout/playout/media"
	"github.com/avplayout/playout/schedule"
)

// Expander expands plans into a shared priority queue of clip instances.
type Expander struct {
	Prober media.Prober
	// Logf receives warnings (cadence < play duration, unreadable media,
	// cursor overrun) without aborting the expansion. Defaults to log.Printf.
	Logf func(format string, args ...interface{})

	seq uint64
}

// New returns an Expander using the given prober.
func New(prober media.Prober) *Expander {
	return &Expander{Prober: prober, Logf: log.Printf}
}

// ExpandPlan expands every source of plan into q.
func (e *Expander) ExpandPlan(plan *schedule.Plan, q *schedule.Queue) error {
	if e.Logf == nil {
		e.Logf = log.Printf
	}
	for _, src := range plan.Sources {
		if err := e.expandSource(src, q); err != nil {
			return fmt.Errorf("expand source %d (%s): %w", src.Index, src.Glob, err)
		}
	}
	return nil
}

// cursorMemory tracks, per media path within one source, the state needed
// to carry cursor continuity across a looping source's repeated passes.
type cursorMemory struct {
	cursorEnd time.Duration
	wallEnd   time.Time
}

func (e *Expander) expandSource(src *schedule.Source, q *schedule.Queue) error {
	if src.Loop && src.EndAt == nil {
		return fmt.Errorf("looping source requires end_at")
	}
	if len(src.Paths) == 0 {
		return nil
	}

	mem := make(map[string]cursorMemory, len(src.Paths))
	start := src.StartAt
	pass := 0

	for {
		pass++
		for _, path := range src.Paths {
			if src.EndAt != nil && !start.Before(*src.EndAt) {
				return nil
			}

			dur, err := e.Prober.Duration(path)
			if err != nil {
				e.Logf("expander: skipping unreadable clip %q: %v", path, err)
				continue
			}

			playDur := dur
			if src.ClipPlayDurationSet {
				playDur = src.ClipPlayDuration
			}
			if src.EndAt != nil {
				if remaining := src.EndAt.Sub(start); playDur > remaining {
					playDur = remaining
				}
			}
			if playDur <= 0 {
				return nil
			}
			end := start.Add(playDur)

			cursorStart := e.continuityCursor(src, mem, path, start)
			cursorStart = schedule.NormalizeCursor(cursorStart, dur)
			cursorEnd := schedule.NormalizeCursor(cursorStart+playDur, dur)
			if cursorStart > dur || cursorEnd > dur {
				e.Logf("expander: warning: cursor exceeds duration for %q", path)
			}

			loop := src.EffectiveLoop(playDur, dur)

			e.seq++
			q.Push(&schedule.ClipInstance{
				Source:        src,
				Path:          path,
				StartAt:       start,
				EndAt:         end,
				Duration:      dur,
				PlayDuration:  playDur,
				CursorStartAt: cursorStart,
				CursorEndAt:   cursorEnd,
				Loop:          loop,
				Seq:           e.seq,
			})

			mem[path] = cursorMemory{cursorEnd: cursorEnd, wallEnd: end}

			if src.ClipRepeatIntervalSet {
				if src.ClipRepeatInterval < playDur {
					e.Logf("expander: warning: source %d repeat interval %v shorter than play duration %v", src.Index, src.ClipRepeatInterval, playDur)
				}
				start = start.Add(src.ClipRepeatInterval)
			} else {
				start = end
			}
		}

		if !src.Loop {
			return nil
		}
		if src.RepeatCount > 0 && pass >= src.RepeatCount {
			return nil
		}
		if src.EndAt != nil && !start.Before(*src.EndAt) {
			return nil
		}
	}
}

// continuityCursor computes a clip's starting cursor from the per-path
// memory of a looping source's prior pass, per §4.3's three policies.
// Non-looping sources (or a path seen for the first time) always start
// at zero.
func (e *Expander) continuityCursor(src *schedule.Source, mem map[string]cursorMemory, path string, start time.Time) time.Duration {
	m, seen := mem[path]
	if !seen || !src.Loop {
		return 0
	}
	switch src.CursorPolicy() {
	case schedule.PolicyContinue:
		return m.cursorEnd
	case schedule.PolicySkip:
		return m.cursorEnd + start.Sub(m.wallEnd)
	default:
		return 0
	}
}
