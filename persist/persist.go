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

// Package persist serializes a resolved timeline to the durable output
// artifacts consumed by the playout driver and by operators: a full
// human-readable dump, a priority-filtered human-readable dump, and a
// filtered CSV.
package persist

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"gopkg.in/yaml.v3"

	"github.com/avplayout/playout/schedule"
)

const (
	FullFileName     = "all.yaml"
	FilteredYAMLName = "filtered.yaml"
	FilteredCSVName  = "filtered.csv"
)

// Persistor writes compiled timelines to a local output directory and,
// when GCSBucket is set, mirrors the same three artifacts to Google
// Cloud Storage.
type Persistor struct {
	OutDir           string
	OutPriorityLevel int
	GCSBucket        string // optional; empty disables the mirrored upload

	// HeaderComment, when non-empty, is written as a leading comment line
	// on the full-timeline dump (e.g. the set of plan titles it came
	// from). Restored from the original implementation; spec.md does not
	// require it.
	HeaderComment string
}

type record struct {
	StartAt       string `yaml:"start_at"`
	EndAt         string `yaml:"end_at"`
	Duration      string `yaml:"duration"`       // play_duration: end_at - start_at
	MediaDuration string `yaml:"media_duration"`  // the clip's full intrinsic duration
	Path          string `yaml:"path"`
	Priority      int    `yaml:"priority"`
	CursorStartAt string `yaml:"cursor_start_at"`
	CursorEndAt   string `yaml:"cursor_end_at"`
	Loop          bool   `yaml:"loop"`
}

// WriteAll renders and writes all three output artifacts under p.OutDir,
// creating it if necessary, and mirrors them to GCS if p.GCSBucket is set.
func (p *Persistor) WriteAll(ctx context.Context, tl schedule.Timeline) error {
	if err := os.MkdirAll(p.OutDir, 0o755); err != nil {
		return fmt.Errorf("persist: create output dir: %w", err)
	}

	full, err := p.renderYAML(tl, p.HeaderComment)
	if err != nil {
		return fmt.Errorf("persist: render full timeline: %w", err)
	}
	filtered := filterByPriority(tl, p.OutPriorityLevel)
	filteredYAML, err := p.renderYAML(filtered, "")
	if err != nil {
		return fmt.Errorf("persist: render filtered timeline: %w", err)
	}
	filteredCSV, err := renderCSV(filtered)
	if err != nil {
		return fmt.Errorf("persist: render filtered csv: %w", err)
	}

	files := map[string][]byte{
		FullFileName:     full,
		FilteredYAMLName: filteredYAML,
		FilteredCSVName:  filteredCSV,
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(p.OutDir, name), data, 0o644); err != nil {
			return fmt.Errorf("persist: write %s: %w", name, err)
		}
	}

	if p.GCSBucket != "" {
		if err := p.mirrorToGCS(ctx, files); err != nil {
			return fmt.Errorf("persist: mirror to gcs: %w", err)
		}
	}
	return nil
}

func filterByPriority(tl schedule.Timeline, level int) schedule.Timeline {
	out := make(schedule.Timeline, 0, len(tl))
	for _, c := range tl {
		if c.Priority() <= level {
			out = append(out, c)
		}
	}
	return out
}

func (p *Persistor) renderYAML(tl schedule.Timeline, header string) ([]byte, error) {
	recs := make([]record, 0, len(tl))
	for _, c := range tl {
		recs = append(recs, record{
			StartAt:       formatInstant(c.StartAt),
			EndAt:         formatInstant(c.EndAt),
			Duration:      formatDuration(c.PlayDuration),
			MediaDuration: formatDuration(c.Duration),
			Path:          c.Path,
			Priority:      c.Priority(),
			CursorStartAt: formatDuration(c.CursorStartAt),
			CursorEndAt:   formatDuration(c.CursorEndAt),
			Loop:          c.Loop,
		})
	}
	body, err := yaml.Marshal(recs)
	if err != nil {
		return nil, err
	}
	if header == "" {
		return body, nil
	}
	return append([]byte("# "+header+"\n"), body...), nil
}

func renderCSV(tl schedule.Timeline) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, c := range tl {
		row := []string{formatInstant(c.StartAt), formatDuration(c.PlayDuration), c.Path}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// formatInstant renders t as ISO-8601 (RFC3339, with nanoseconds only when
// non-zero, same convention Go's RFC3339Nano already follows).
func formatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// formatDuration renders d as H:MM:SS[.micros], per §4.6.
func formatDuration(d time.Duration) string {
	neg := d < 0
	if neg {
		d = -d
	}
	hours := d / time.Hour
	d -= hours * time.Hour
	mins := d / time.Minute
	d -= mins * time.Minute
	secs := d / time.Second
	d -= secs * time.Second
	micros := d / time.Microsecond

	s := fmt.Sprintf("%d:%02d:%02d", hours, mins, secs)
	if micros > 0 {
		s += "." + fmt.Sprintf("%06d", int64(micros))
	}
	if neg {
		s = "-" + s
	}
	return s
}

// LoadTimeline reads back a full-timeline dump written by WriteAll,
// reconstructing the schedule.ClipInstance values the driver needs to run.
// Each instance gets its own synthetic Source carrying only the priority,
// since the driver reads the resolved timeline and never re-derives
// preemption decisions.
func LoadTimeline(path string) (schedule.Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persist: load %s: %w", path, err)
	}
	var recs []record
	if err := yaml.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("persist: parse %s: %w", path, err)
	}

	tl := make(schedule.Timeline, 0, len(recs))
	for i, r := range recs {
		startAt, err := parseInstant(r.StartAt)
		if err != nil {
			return nil, fmt.Errorf("persist: record %d: start_at: %w", i, err)
		}
		endAt, err := parseInstant(r.EndAt)
		if err != nil {
			return nil, fmt.Errorf("persist: record %d: end_at: %w", i, err)
		}
		playDur, err := parseDuration(r.Duration)
		if err != nil {
			return nil, fmt.Errorf("persist: record %d: duration: %w", i, err)
		}
		mediaDur, err := parseDuration(r.MediaDuration)
		if err != nil {
			return nil, fmt.Errorf("persist: record %d: media_duration: %w", i, err)
		}
		cursorStart, err := parseDuration(r.CursorStartAt)
		if err != nil {
			return nil, fmt.Errorf("persist: record %d: cursor_start_at: %w", i, err)
		}
		cursorEnd, err := parseDuration(r.CursorEndAt)
		if err != nil {
			return nil, fmt.Errorf("persist: record %d: cursor_end_at: %w", i, err)
		}

		tl = append(tl, &schedule.ClipInstance{
			Source:        &schedule.Source{Priority: r.Priority},
			Path:          r.Path,
			StartAt:       startAt,
			EndAt:         endAt,
			Duration:      mediaDur,
			PlayDuration:  playDur,
			CursorStartAt: cursorStart,
			CursorEndAt:   cursorEnd,
			Loop:          r.Loop,
			Seq:           uint64(i),
		})
	}
	return tl, nil
}

func parseInstant(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// parseDuration is the inverse of formatDuration: "[-]H:MM:SS[.micros]".
func parseDuration(s string) (time.Duration, error) {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return 0, fmt.Errorf("bad duration %q", s)
	}
	hours, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad duration %q: %w", s, err)
	}
	mins, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad duration %q: %w", s, err)
	}
	secs, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("bad duration %q: %w", s, err)
	}
	d := time.Duration(hours)*time.Hour + time.Duration(mins)*time.Minute + time.Duration(secs*float64(time.Second))
	if neg {
		d = -d
	}
	return d, nil
}

func (p *Persistor) mirrorToGCS(ctx context.Context, files map[string][]byte) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	bucket := client.Bucket(p.GCSBucket)
	for name, data := range files {
		w := bucket.Object(name).NewWriter(ctx)
		if _, err := w.Write(data); err != nil {
			w.Close()
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
