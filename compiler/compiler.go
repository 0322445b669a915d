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

// Package compiler wires the expander, resolver, and persistor into the
// single "load plans, produce a timeline, write it out" operation shared
// by cmd/playoutbuild and the periodic rebuilds cmd/playoutctl schedules.
package compiler

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/avplayout/playout/config"
	"github.com/avplayout/playout/expander"
	"github.com/avplayout/playout/media"
	"github.com/avplayout/playout/persist"
	"github.com/avplayout/playout/planfile"
	"github.com/avplayout/playout/resolver"
	"github.com/avplayout/playout/schedule"
)

// Result summarizes one compile run, for callers (CLI output, admin UI)
// that want more than a pass/fail signal.
type Result struct {
	PlansLoaded int
	LoadErrors  []error
	Instances   int
	Timeline    schedule.Timeline
}

// Build loads every plan matched by cfg.PlanGlob, compiles them into a
// single resolved timeline, and — unless dryRun — writes the output
// artifacts to cfg.OutDir.
func Build(cfg *config.Config, dryRun bool) (*Result, error) {
	now := time.Now()

	plans, loadErrs := planfile.LoadAll(cfg.PlanGlob, now)
	for _, e := range loadErrs {
		log.Printf("compiler: skipping plan: %v", e)
	}

	q := schedule.NewQueue()
	exp := expander.New(media.NewProbe())
	for _, plan := range plans {
		if err := exp.ExpandPlan(plan, q); err != nil {
			log.Printf("compiler: expand %s: %v", plan.Path, err)
		}
	}

	timeline, err := resolver.Resolve(q)
	if err != nil {
		return nil, err
	}

	result := &Result{
		PlansLoaded: len(plans),
		LoadErrors:  loadErrs,
		Instances:   len(timeline),
		Timeline:    timeline,
	}

	if dryRun {
		return result, nil
	}

	p := &persist.Persistor{
		OutDir:           cfg.OutDir,
		OutPriorityLevel: cfg.OutPriorityLevel,
		GCSBucket:        cfg.GCSBucket,
		HeaderComment:    headerComment(plans),
	}
	if err := p.WriteAll(context.Background(), timeline); err != nil {
		return result, err
	}
	return result, nil
}

// headerComment joins every plan's title (falling back to its
// description) into the one-line comment persist.Persistor stamps on the
// full-timeline dump. Plans with neither contribute nothing.
func headerComment(plans []*schedule.Plan) string {
	var parts []string
	for _, plan := range plans {
		switch {
		case plan.Title != "":
			parts = append(parts, plan.Title)
		case plan.Description != "":
			parts = append(parts, plan.Description)
		}
	}
	return strings.Join(parts, "; ")
}
