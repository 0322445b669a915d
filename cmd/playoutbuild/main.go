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

// Playoutbuild compiles plan files into a conflict-free timeline and
// writes the persisted output artifacts.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/avplayout/playout/compiler"
	"github.com/avplayout/playout/config"
)

func main() {
	var (
		configPath string
		dryRun     bool
	)
	flag.StringVar(&configPath, "config", config.PathFromEnv(), "Path to the process configuration file.")
	flag.BoolVar(&dryRun, "dry-run", false, "Compile and log the result without writing output artifacts.")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("playoutbuild: %v", err)
	}

	result, err := compiler.Build(cfg, dryRun)
	if err != nil {
		log.Fatalf("playoutbuild: %v", err)
	}
	log.Printf("playoutbuild: resolved %d clip instances from %d plan(s)", result.Instances, result.PlansLoaded)

	if dryRun {
		for _, c := range result.Timeline {
			log.Printf("playoutbuild: dry-run: %s %s -> %s (priority %d)",
				c.Path, c.StartAt.Format(time.RFC3339), c.EndAt.Format(time.RFC3339), c.Priority())
		}
	}
}
