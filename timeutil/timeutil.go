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

// Package timeutil resolves the polymorphic time literals accepted by plan
// files — absolute instants, durations, and the handful of string forms
// described in the plan schema — against a caller-supplied anchor instant.
package timeutil

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrBadTimeLiteral is wrapped with details and returned for any literal
// that cannot be parsed as an instant, duration, or recognized string form.
var ErrBadTimeLiteral = errors.New("bad time literal")

var colonForm = regexp.MustCompile(`^\d+:\d+:\d+(\.\d+)?$`)

// isoLayouts are tried in order when a string does not match the colon or
// compact-duration forms.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ToInstant resolves raw into an absolute instant relative to anchor.
// Absolute strings parse directly; duration forms (colon, compact, numeric
// seconds) are added to anchor. A nil/empty raw returns def.
func ToInstant(anchor time.Time, raw interface{}, def time.Time) (time.Time, error) {
	if isEmpty(raw) {
		return def, nil
	}
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case time.Duration:
		return anchor.Add(v), nil
	}
	if d, ok, err := parseDurationValue(raw); err != nil {
		return time.Time{}, err
	} else if ok {
		return anchor.Add(d), nil
	}
	if s, ok := raw.(string); ok {
		if t, ok := parseISO(s); ok {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %v", ErrBadTimeLiteral, raw)
}

// ToDuration resolves raw into a duration relative to anchor. Absolute
// strings become instant-anchor; duration forms (colon, compact, numeric
// seconds) parse directly. A nil/empty raw returns def.
func ToDuration(anchor time.Time, raw interface{}, def time.Duration) (time.Duration, error) {
	if isEmpty(raw) {
		return def, nil
	}
	switch v := raw.(type) {
	case time.Duration:
		return v, nil
	case time.Time:
		return v.Sub(anchor), nil
	}
	if d, ok, err := parseDurationValue(raw); err != nil {
		return 0, err
	} else if ok {
		return d, nil
	}
	if s, ok := raw.(string); ok {
		if t, ok := parseISO(s); ok {
			return t.Sub(anchor), nil
		}
	}
	return 0, fmt.Errorf("%w: %v", ErrBadTimeLiteral, raw)
}

func isEmpty(raw interface{}) bool {
	if raw == nil {
		return true
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		return true
	}
	return false
}

// parseDurationValue handles numeric-seconds, compact "NhNmNs" and colon
// "H:M:S.ms" forms. The bool return is false (with nil error) when raw is a
// string that doesn't match any duration form, so the caller can fall
// through to ISO parsing.
func parseDurationValue(raw interface{}) (time.Duration, bool, error) {
	switch v := raw.(type) {
	case float64:
		return time.Duration(v * float64(time.Second)), true, nil
	case int:
		return time.Duration(v) * time.Second, true, nil
	case int64:
		return time.Duration(v) * time.Second, true, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false, nil
		}
		if colonForm.MatchString(s) {
			d, err := parseColon(s)
			if err != nil {
				return 0, true, err
			}
			return d, true, nil
		}
		if d, err := time.ParseDuration(s); err == nil {
			return d, true, nil
		}
		if secs, err := strconv.ParseFloat(s, 64); err == nil {
			return time.Duration(secs * float64(time.Second)), true, nil
		}
		return 0, false, nil
	default:
		return 0, false, nil
	}
}

// parseColon parses "H:M:S[.ms]" into a duration.
func parseColon(s string) (time.Duration, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %v", ErrBadTimeLiteral, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadTimeLiteral, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadTimeLiteral, s)
	}
	secStr := parts[2]
	sec, err := strconv.ParseFloat(secStr, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadTimeLiteral, s)
	}
	total := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(sec*float64(time.Second))
	return total, nil
}

func parseISO(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
