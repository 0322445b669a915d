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

// Package config loads the single process configuration file shared by
// the compiler and driver binaries (§6): plan discovery, output
// directory, the priority cutoff for the filtered artifacts, the
// driver's polling interval, and how to launch and reach the player.
package config

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar is the environment variable naming the configuration file path.
const EnvVar = "PLAYOUT_CONFIG"

// DefaultPath is used when EnvVar is unset.
const DefaultPath = "config.yaml"

// Duration is a time.Duration that unmarshals from YAML either as a Go
// duration string ("500ms") or a bare number of seconds, matching the
// plan file's own duration literals (§4.1) rather than yaml.v3's default
// of requiring an integer nanosecond count.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("config: bad duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var secs float64
	if err := value.Decode(&secs); err != nil {
		return fmt.Errorf("config: bad duration: %w", err)
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}

// PlayerConfig describes how to launch and reach the player process.
type PlayerConfig struct {
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Password string   `yaml:"password"`
	// ExtraInterfaces names additional VLC control interfaces to enable
	// alongside the HTTP one (e.g. "rc"), passed through verbatim.
	ExtraInterfaces []string `yaml:"extra_interfaces"`
	// BinaryPath maps GOOS to the player binary to launch; runtime.GOOS
	// selects the entry used by cmd/playoutdrv.
	BinaryPath map[string]string `yaml:"binary_path"`
	ExtraFlags []string          `yaml:"extra_flags"`
}

// Binary returns the player executable for the current OS.
func (p PlayerConfig) Binary() (string, error) {
	bin, ok := p.BinaryPath[runtime.GOOS]
	if !ok {
		return "", fmt.Errorf("config: no player binary configured for GOOS %q", runtime.GOOS)
	}
	return bin, nil
}

// Config is the top-level process configuration.
type Config struct {
	// PlanGlob selects the plan files the compiler loads, e.g. "plans/*.yaml".
	PlanGlob string `yaml:"plan_glob"`
	// OutDir is where all.yaml, filtered.yaml, and filtered.csv are written.
	OutDir string `yaml:"out_dir"`
	// OutPriorityLevel is the cutoff (inclusive) for the filtered artifacts.
	// An absent out_priority_level defaults to defaultOutPriorityLevel; an
	// explicit 0 (filter everything) is honored as-is. See rawConfig.
	OutPriorityLevel int `yaml:"out_priority_level"`
	// PollingTime is the driver's tick interval; zero means the driver's
	// own default (500ms).
	PollingTime Duration `yaml:"polling_time"`
	// GCSBucket, when set, mirrors output artifacts to Google Cloud Storage.
	GCSBucket string `yaml:"gcs_bucket"`

	Player PlayerConfig `yaml:"player"`

	// LocationID names the IANA time zone cmd/playoutctl's rebuild
	// scheduler resolves sun-relative cron literals against. Defaults
	// to UTC when empty.
	LocationID string `yaml:"location_id"`
	// RebuildSpec is a robfig/cron spec (sun-literals included) naming
	// how often cmd/playoutctl recompiles plan files. Empty disables
	// the scheduler.
	RebuildSpec string `yaml:"rebuild_spec"`

	Admin AdminConfig `yaml:"admin"`
}

// rawConfig mirrors Config but leaves OutPriorityLevel as a pointer, the
// same way planfile.rawSource leaves priority/repeat_count as pointers, so
// Load can distinguish an absent field from an explicit zero.
type rawConfig struct {
	PlanGlob         string       `yaml:"plan_glob"`
	OutDir           string       `yaml:"out_dir"`
	OutPriorityLevel *int         `yaml:"out_priority_level"`
	PollingTime      Duration     `yaml:"polling_time"`
	GCSBucket        string       `yaml:"gcs_bucket"`
	Player           PlayerConfig `yaml:"player"`
	LocationID       string       `yaml:"location_id"`
	RebuildSpec      string       `yaml:"rebuild_spec"`
	Admin            AdminConfig  `yaml:"admin"`
}

// AdminConfig configures cmd/playoutctl's optional HTTP admin server.
type AdminConfig struct {
	Addr string `yaml:"addr"`
	// JWTSecret signs the bearer tokens issued by the /login endpoint.
	// Required for the admin server to start.
	JWTSecret string `yaml:"jwt_secret"`
}

// Load reads and parses path. Unrecognized fields are rejected, matching
// the plan file's strictness (§6).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	outPriorityLevel := defaultOutPriorityLevel
	if raw.OutPriorityLevel != nil {
		outPriorityLevel = *raw.OutPriorityLevel
	}

	cfg := &Config{
		PlanGlob:         raw.PlanGlob,
		OutDir:           raw.OutDir,
		OutPriorityLevel: outPriorityLevel,
		PollingTime:      raw.PollingTime,
		GCSBucket:        raw.GCSBucket,
		Player:           raw.Player,
		LocationID:       raw.LocationID,
		RebuildSpec:      raw.RebuildSpec,
		Admin:            raw.Admin,
	}
	return cfg, nil
}

// PathFromEnv returns the configured path from EnvVar, or DefaultPath.
func PathFromEnv() string {
	if v := os.Getenv(EnvVar); v != "" {
		return v
	}
	return DefaultPath
}

const defaultOutPriorityLevel = 100
