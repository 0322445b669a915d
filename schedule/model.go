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

// Package schedule holds the immutable-after-compile records shared by the
// expander and resolver: plans, sources, and the clip instances that make
// up a resolved timeline.
package schedule

import "time"

// CursorPolicy selects how a clip instance's media cursor is adjusted when
// the instance is cropped or split by a higher-priority preemption. Exactly
// one policy is effective per source; precedence when more than one flag is
// set is Restart > Continue > Skip > Stop.
type CursorPolicy int

const (
	// PolicyStop drops the instance rather than cropping or splitting it.
	// It is the default when no interruption-response flag is set.
	PolicyStop CursorPolicy = iota
	PolicyRestart
	PolicyContinue
	PolicySkip
)

func (p CursorPolicy) String() string {
	switch p {
	case PolicyRestart:
		return "restart"
	case PolicyContinue:
		return "continue"
	case PolicySkip:
		return "skip"
	default:
		return "stop"
	}
}

// Source declares a glob of media files together with cadence, window, and
// preemption policy. Sources are resolved against their plan before
// expansion; StartAt/EndAt below are always set (EndAt is nil only when
// neither the source nor the plan bounds it).
type Source struct {
	Index int // position within Plan.Sources, used for identity/grouping

	Glob     string
	Priority int // lower is stronger

	StartAt time.Time
	EndAt   *time.Time

	Loop bool // replay the clip list until EndAt; requires EndAt set

	ClipPlayDurationSet bool
	ClipPlayDuration    time.Duration // 0 + unset => use each clip's full media duration

	ClipRepeatIntervalSet bool
	ClipRepeatInterval    time.Duration // unset => sequential mode

	ClipLoop bool // raw clip_loop flag; OR'd with the derived per-instance condition

	RestartAfterInterruption bool
	ContinueAfterInterruption bool
	SkipTimeAfterInterruption bool

	// RepeatCount caps the number of cadence/sequential passes for a looping
	// source; zero means unbounded (bounded only by EndAt). Net-new, not
	// grounded in the original implementation; spec.md is silent on it.
	RepeatCount int

	// Paths is the glob's lexicographically sorted expansion.
	Paths []string
}

// EffectiveLoop reports whether one clip instance should be told to loop
// in the player: either the source was authored with clip_loop set, or
// the instance's play duration overruns the clip's own media duration
// (dur), in which case the player must loop the file to fill the window.
func (s *Source) EffectiveLoop(playDur, dur time.Duration) bool {
	return s.ClipLoop || playDur > dur
}

// CursorPolicy returns this source's single effective preemption policy.
func (s *Source) CursorPolicy() CursorPolicy {
	switch {
	case s.RestartAfterInterruption:
		return PolicyRestart
	case s.ContinueAfterInterruption:
		return PolicyContinue
	case s.SkipTimeAfterInterruption:
		return PolicySkip
	default:
		return PolicyStop
	}
}

// Plan is a top-level, human-authored schedule file: a window plus the
// sources that air within it.
type Plan struct {
	StartAt time.Time
	EndAt   *time.Time

	// Title/Description are free-text metadata with no scheduling effect,
	// carried through to the persisted full-timeline dump as a header
	// comment. Restored from the original implementation.
	Title       string
	Description string

	Sources []*Source

	// Path is the plan file this was loaded from, for diagnostics.
	Path string
}

// ClipInstance is the unit of a compiled timeline: one concrete, bounded
// playback of one media file. Instances are created by the expander,
// mutated only by the resolver (crop/split), and read-only once persisted.
type ClipInstance struct {
	Source *Source // relational backref; priority + preemption policy + identity
	Path   string

	StartAt time.Time
	EndAt   time.Time

	Duration     time.Duration // full intrinsic media duration
	PlayDuration time.Duration // EndAt - StartAt

	CursorStartAt time.Duration
	CursorEndAt   time.Duration

	Loop bool // force the player to loop the underlying media

	// Seq breaks ties deterministically among instances sharing the same
	// (StartAt, Priority), per the stable-min-heap design in §9.
	Seq uint64
}

// Priority returns the instance's inherited source priority.
func (c *ClipInstance) Priority() int {
	return c.Source.Priority
}

// Timeline is the final, resolved, totally-ordered list of clip instances.
type Timeline []*ClipInstance
