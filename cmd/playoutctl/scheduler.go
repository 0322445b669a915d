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

package main

import (
	"log"
	"sync"
	"time"

	"github.com/kortschak/sun"
	cron "github.com/robfig/cron/v3"

	"github.com/avplayout/playout/compiler"
	"github.com/avplayout/playout/config"
)

// defaultLocationID is used when cfg does not specify one. Suncompiled
// schedules (dawn/dusk literals) need a location to resolve against;
// plain cron specs ignore it.
const defaultLocationID = "UTC"

// rebuildScheduler periodically recompiles plan files into a fresh
// timeline, the same operation cmd/playoutbuild performs once.
type rebuildScheduler struct {
	cron *cron.Cron

	mu      sync.Mutex
	lastErr error
	lastRun time.Time
}

// newRebuildScheduler starts a cron-driven scheduler that calls
// compiler.Build(cfg, false) on the given spec. Spec accepts robfig/cron
// syntax plus kortschak/sun's @sunrise/@sunset/@dawn/@dusk literals.
func newRebuildScheduler(cfg *config.Config, spec string) (*rebuildScheduler, error) {
	locID := cfg.LocationID
	if locID == "" {
		locID = defaultLocationID
	}
	loc, err := time.LoadLocation(locID)
	if err != nil {
		return nil, err
	}

	s := &rebuildScheduler{cron: cron.New(cron.WithParser(sun.Parser{}), cron.WithLocation(loc))}
	_, err = s.cron.AddFunc(spec, func() {
		result, err := compiler.Build(cfg, false)
		s.mu.Lock()
		s.lastErr = err
		s.lastRun = time.Now()
		s.mu.Unlock()
		if err != nil {
			log.Printf("playoutctl: scheduled rebuild failed: %v", err)
			return
		}
		log.Printf("playoutctl: scheduled rebuild resolved %d clip instances from %d plan(s)",
			result.Instances, result.PlansLoaded)
	})
	if err != nil {
		return nil, err
	}
	s.cron.Start()
	return s, nil
}

func (s *rebuildScheduler) status() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}

func (s *rebuildScheduler) stop() {
	<-s.cron.Stop().Done()
}
