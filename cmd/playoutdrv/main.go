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

// Playoutdrv launches the media player and runs it against a previously
// compiled timeline (see cmd/playoutbuild).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/avplayout/playout/config"
	"github.com/avplayout/playout/driver"
	"github.com/avplayout/playout/notify"
	"github.com/avplayout/playout/persist"
	"github.com/avplayout/playout/player"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", config.PathFromEnv(), "Path to the process configuration file.")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("playoutdrv: %v", err)
	}
	if err := cfg.ResolveSecrets(context.Background()); err != nil {
		log.Fatalf("playoutdrv: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("playoutdrv: %v", err)
	}
}

func run(cfg *config.Config) error {
	timeline, err := persist.LoadTimeline(filepath.Join(cfg.OutDir, persist.FullFileName))
	if err != nil {
		return fmt.Errorf("load timeline: %w", err)
	}
	log.Printf("playoutdrv: loaded %d clip instances", len(timeline))

	proc, err := launchPlayer(cfg.Player)
	if err != nil {
		return fmt.Errorf("launch player: %w", err)
	}
	defer proc.kill()

	var n notify.Notifier
	n.Init(os.Getenv("MAILJET_SENDER"), os.Getenv("MAILJET_PUBLIC_KEY"), os.Getenv("MAILJET_PRIVATE_KEY"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Printf("playoutdrv: shutdown signal received")
		cancel()
	}()

	// Give the player a moment to bind its HTTP interface before the
	// driver starts issuing commands against it.
	time.Sleep(time.Second)

	d := &driver.Driver{
		Player:      player.New(cfg.Player.Host, cfg.Player.Port, cfg.Player.Password),
		Watcher:     proc,
		PollingTime: time.Duration(cfg.PollingTime),
	}

	err = d.Run(ctx, timeline)
	if err != nil {
		if sendErr := n.SendOps("driver-aborted", fmt.Sprintf("playout driver aborted: %v", err)); sendErr != nil {
			log.Printf("playoutdrv: notify: %v", sendErr)
		}
		return err
	}
	return nil
}

// playerProcess launches and watches the external player binary.
type playerProcess struct {
	cmd  *exec.Cmd
	done int32
}

func launchPlayer(cfg config.PlayerConfig) (*playerProcess, error) {
	bin, err := cfg.Binary()
	if err != nil {
		return nil, err
	}

	args := []string{
		"--extraintf", "http",
		"--http-host", cfg.Host,
		"--http-port", fmt.Sprintf("%d", cfg.Port),
		"--http-password", cfg.Password,
	}
	for _, ifc := range cfg.ExtraInterfaces {
		args = append(args, "--extraintf", ifc)
	}
	args = append(args, cfg.ExtraFlags...)

	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", bin, err)
	}

	p := &playerProcess{cmd: cmd}
	go func() {
		cmd.Wait()
		atomic.StoreInt32(&p.done, 1)
	}()
	return p, nil
}

func (p *playerProcess) Alive() bool {
	return atomic.LoadInt32(&p.done) == 0
}

func (p *playerProcess) kill() {
	if p.cmd.Process != nil && p.Alive() {
		p.cmd.Process.Kill()
	}
}
