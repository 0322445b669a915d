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

// Package resolver drains the expander's priority queue into the final,
// conflict-free timeline, cropping, splitting, or discarding overlapping
// instances according to source priority and preemption policy.
package resolver

import (
	"errors"
	"fmt"
	"time"

	"github.com/avplayout/playout/schedule"
)

// ErrOutOfOrder indicates the queue handed the resolver an instance that
// starts at the same time as, but outranks, the instance already accepted
// there — a queue-ordering invariant violation and therefore a bug in the
// expander or queue, not a recoverable scheduling conflict.
var ErrOutOfOrder = errors.New("resolver: out-of-order priority in queue")

// Queue is the minimal interface Resolve needs from the expander's
// priority queue: pop the least element, and push a re-emitted tail back
// in so it re-enters the comparison cascade. *schedule.Queue satisfies
// this; tests may substitute a fake to exercise orderings the real heap
// would never itself produce.
type Queue interface {
	Pop() *schedule.ClipInstance
	Push(*schedule.ClipInstance)
}

// Resolve drains q in (start, priority) order and returns the resolved,
// non-overlapping timeline. q is consumed; instances that are split
// produce a "tail" that is pushed back onto q so it passes through the
// full comparison cascade against later instances too.
func Resolve(q Queue) (schedule.Timeline, error) {
	var timeline schedule.Timeline
	var prev *schedule.ClipInstance

	for {
		next := q.Pop()
		if next == nil {
			return timeline, nil
		}

		if prev == nil {
			timeline = append(timeline, next)
			prev = next
			continue
		}

		switch {
		case !next.StartAt.Before(prev.EndAt):
			// Strictly after: no overlap.
			timeline = append(timeline, next)
			prev = next

		case next.StartAt.Equal(prev.StartAt):
			if next.Priority() < prev.Priority() {
				return nil, fmt.Errorf("%w: %s arrived at %v after weaker priority %d was already accepted",
					ErrOutOfOrder, next.Path, next.StartAt, prev.Priority())
			}
			// Same-slot tie: prev wins, drop next.

		case next.Priority() >= prev.Priority():
			// next is weaker or equal: crop or drop it.
			if !next.EndAt.After(prev.EndAt) {
				// Entirely shadowed.
				continue
			}
			if next.Source.CursorPolicy() == schedule.PolicyStop {
				continue
			}
			cropFront(next, prev.EndAt)
			timeline = append(timeline, next)
			prev = next

		default:
			// next is stronger: it preempts prev.
			timeline = append(timeline, next)
			if tail := splitTail(prev, next); tail != nil {
				q.Push(tail)
			}
			prev = next
		}
	}
}

// cropFront crops next's leading edge to newStart (§4.5 case 3),
// recomputing play duration and cursor per next's source cursor policy.
// PolicyStop is handled by the caller before this is reached.
func cropFront(next *schedule.ClipInstance, newStart time.Time) {
	oldStart := next.StartAt
	remaining := next.EndAt.Sub(newStart)
	newPlay := next.PlayDuration
	if remaining < newPlay {
		newPlay = remaining
	}
	next.StartAt = newStart
	next.PlayDuration = newPlay
	next.EndAt = newStart.Add(newPlay)

	switch next.Source.CursorPolicy() {
	case schedule.PolicyRestart:
		// Cursor unchanged: re-enters at the original cursor_start.
	case schedule.PolicyContinue, schedule.PolicySkip:
		delta := next.StartAt.Sub(oldStart)
		next.CursorStartAt = schedule.NormalizeCursor(next.CursorStartAt+delta, next.Duration)
	}
	next.CursorEndAt = schedule.NormalizeCursor(next.CursorStartAt+next.PlayDuration, next.Duration)
}

// splitTail crops prev's trailing edge to next's start (§4.5 case 4) and,
// unless prev's source stops on interruption, returns the re-emitted tail
// covering the remainder of prev's original window. Returns nil when the
// source stops on interruption or the remainder is empty.
func splitTail(prev, next *schedule.ClipInstance) *schedule.ClipInstance {
	originalEnd := prev.EndAt
	prev.EndAt = next.StartAt
	prev.PlayDuration = prev.EndAt.Sub(prev.StartAt)
	prev.CursorEndAt = schedule.NormalizeCursor(prev.CursorStartAt+prev.PlayDuration, prev.Duration)

	if prev.Source.CursorPolicy() == schedule.PolicyStop {
		return nil
	}

	tail := *prev // clone
	tail.StartAt = next.EndAt
	tail.EndAt = originalEnd
	tail.PlayDuration = tail.EndAt.Sub(tail.StartAt)
	if tail.PlayDuration <= 0 {
		return nil
	}

	switch tail.Source.CursorPolicy() {
	case schedule.PolicyRestart:
		tail.CursorStartAt = 0
	case schedule.PolicyContinue:
		tail.CursorStartAt = schedule.NormalizeCursor(prev.CursorStartAt+prev.PlayDuration, tail.Duration)
	case schedule.PolicySkip:
		tail.CursorStartAt = schedule.NormalizeCursor(prev.CursorStartAt+prev.PlayDuration+next.PlayDuration, tail.Duration)
	}
	tail.CursorEndAt = schedule.NormalizeCursor(tail.CursorStartAt+tail.PlayDuration, tail.Duration)

	return &tail
}
