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

// Package planfile loads human-authored plan files (§6) into the
// schedule package's in-memory model, resolving every time literal
// against load time and expanding each source's glob into a sorted file
// list.
package planfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/avplayout/playout/schedule"
	"github.com/avplayout/playout/timeutil"
)

// ErrBadPlan wraps any structural or semantic problem with a plan file:
// unrecognized fields, an unparseable time literal, or an invalid
// combination such as loop without end_at.
var ErrBadPlan = errors.New("bad plan")

const defaultPriority = 100

type rawSource struct {
	Source                        string      `yaml:"source"`
	Priority                       *int        `yaml:"priority"`
	StartAt                        interface{} `yaml:"start_at"`
	EndAt                          interface{} `yaml:"end_at"`
	Loop                           bool        `yaml:"loop"`
	ClipPlayDuration               interface{} `yaml:"clip_play_duration"`
	ClipRepeatInterval             interface{} `yaml:"clip_repeat_interval"`
	ClipLoop                       bool        `yaml:"clip_loop"`
	ClipRestartAfterInterruption   bool        `yaml:"clip_restart_after_interruption"`
	ClipContinueAfterInterruption  bool        `yaml:"clip_continue_after_interruption"`
	ClipSkipTimeAfterInterruption  bool        `yaml:"clip_skip_time_after_interruption"`
	RepeatCount                    *int        `yaml:"repeat_count"`
}

type rawPlan struct {
	StartAt     interface{} `yaml:"start_at"`
	EndAt       interface{} `yaml:"end_at"`
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	Sources     []rawSource `yaml:"sources"`
}

// LoadAll discovers every file matching pattern, parses each as a plan
// anchored at now, and returns the plans that parsed successfully. Per
// §7's per-file isolation, a malformed file does not prevent the others
// from loading: its error is appended to errs instead.
func LoadAll(pattern string, now time.Time) (plans []*schedule.Plan, errs []error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, []error{fmt.Errorf("%w: bad glob %q: %v", ErrBadPlan, pattern, err)}
	}
	sort.Strings(paths)

	for _, path := range paths {
		plan, err := loadOne(path, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		plans = append(plans, plan)
	}
	return plans, errs
}

func loadOne(path string, now time.Time) (*schedule.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPlan, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var raw rawPlan
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPlan, err)
	}

	startAt, err := timeutil.ToInstant(now, raw.StartAt, now)
	if err != nil {
		return nil, fmt.Errorf("%w: start_at: %v", ErrBadPlan, err)
	}
	var endAt *time.Time
	if !isEmptyRaw(raw.EndAt) {
		t, err := timeutil.ToInstant(now, raw.EndAt, time.Time{})
		if err != nil {
			return nil, fmt.Errorf("%w: end_at: %v", ErrBadPlan, err)
		}
		endAt = &t
	}

	plan := &schedule.Plan{
		StartAt:     startAt,
		EndAt:       endAt,
		Title:       raw.Title,
		Description: raw.Description,
		Path:        path,
	}

	for i, rs := range raw.Sources {
		src, err := buildSource(i, rs, plan, now)
		if err != nil {
			return nil, fmt.Errorf("%w: source %d: %v", ErrBadPlan, i, err)
		}
		plan.Sources = append(plan.Sources, src)
	}
	return plan, nil
}

func buildSource(idx int, rs rawSource, plan *schedule.Plan, now time.Time) (*schedule.Source, error) {
	if strings.TrimSpace(rs.Source) == "" {
		return nil, errors.New("missing source glob")
	}

	priority := defaultPriority
	if rs.Priority != nil {
		priority = *rs.Priority
	}

	startAt, err := timeutil.ToInstant(now, rs.StartAt, plan.StartAt)
	if err != nil {
		return nil, fmt.Errorf("start_at: %w", err)
	}

	var endAt *time.Time
	switch {
	case !isEmptyRaw(rs.EndAt):
		t, err := timeutil.ToInstant(now, rs.EndAt, time.Time{})
		if err != nil {
			return nil, fmt.Errorf("end_at: %w", err)
		}
		endAt = &t
	case plan.EndAt != nil:
		endAt = plan.EndAt
	}

	if rs.Loop && endAt == nil {
		return nil, errors.New("loop requires end_at, on the source or the plan")
	}

	var playDur time.Duration
	playDurSet := !isEmptyRaw(rs.ClipPlayDuration)
	if playDurSet {
		playDur, err = timeutil.ToDuration(now, rs.ClipPlayDuration, 0)
		if err != nil {
			return nil, fmt.Errorf("clip_play_duration: %w", err)
		}
	}

	var repeatInterval time.Duration
	repeatSet := !isEmptyRaw(rs.ClipRepeatInterval)
	if repeatSet {
		repeatInterval, err = timeutil.ToDuration(now, rs.ClipRepeatInterval, 0)
		if err != nil {
			return nil, fmt.Errorf("clip_repeat_interval: %w", err)
		}
	}

	repeatCount := 0
	if rs.RepeatCount != nil {
		repeatCount = *rs.RepeatCount
	}

	paths, err := expandGlob(rs.Source)
	if err != nil {
		return nil, fmt.Errorf("source glob %q: %w", rs.Source, err)
	}

	return &schedule.Source{
		Index:                     idx,
		Glob:                      rs.Source,
		Priority:                  priority,
		StartAt:                   startAt,
		EndAt:                     endAt,
		Loop:                      rs.Loop,
		ClipPlayDurationSet:       playDurSet,
		ClipPlayDuration:          playDur,
		ClipRepeatIntervalSet:     repeatSet,
		ClipRepeatInterval:        repeatInterval,
		ClipLoop:                  rs.ClipLoop,
		RestartAfterInterruption:  rs.ClipRestartAfterInterruption,
		ContinueAfterInterruption: rs.ClipContinueAfterInterruption,
		SkipTimeAfterInterruption: rs.ClipSkipTimeAfterInterruption,
		RepeatCount:               repeatCount,
		Paths:                     paths,
	}, nil
}

func expandGlob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func isEmptyRaw(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return true
	}
	return false
}
