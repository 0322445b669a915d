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

// Package media answers one question about a file on disk: how long does it
// play for. The schedule compiler treats this as a pure function of path.
package media

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Comcast/gots/v2/packet"
	"github.com/Comcast/gots/v2/pcr"
	"github.com/pkg/errors"
)

// ErrUnreadableMedia wraps any failure to determine a file's duration.
var ErrUnreadableMedia = errors.New("unreadable media")

// Prober returns a media file's intrinsic playable duration.
type Prober interface {
	Duration(path string) (time.Duration, error)
}

// Probe is the default Prober. It reads PCR timestamps directly out of
// MPEG transport streams and shells out to ffprobe for every other
// container, so that adding support for a new format never requires
// touching the scheduler.
type Probe struct {
	// FFProbePath is the ffprobe binary to invoke for non-.ts media.
	// Defaults to "ffprobe" on PATH.
	FFProbePath string
}

// NewProbe returns a Probe using ffprobe from PATH.
func NewProbe() *Probe {
	return &Probe{FFProbePath: "ffprobe"}
}

func (p *Probe) Duration(path string) (time.Duration, error) {
	var (
		d   time.Duration
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".ts") {
		d, err = durationFromTS(path)
	} else {
		d, err = p.durationFromFFProbe(path)
	}
	if err != nil {
		return 0, errors.Wrapf(ErrUnreadableMedia, "%s: %v", path, err)
	}
	return d, nil
}

// durationFromTS computes duration from the span between the first and
// last PCR-bearing packets in an MPEG transport stream, avoiding a
// dependency on an external process for the most common broadcast
// container.
func durationFromTS(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var (
		first, last pcr.PCR
		haveFirst   bool
		buf         packet.Packet
	)
	for {
		_, err := io.ReadFull(f, buf[:])
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return 0, err
		}
		if !packet.ContainsPCR(&buf) {
			continue
		}
		p, err := packet.PCR(&buf)
		if err != nil {
			continue
		}
		if !haveFirst {
			first = p
			haveFirst = true
		}
		last = p
	}
	if !haveFirst {
		return 0, errors.New("no PCR found in stream")
	}
	return last.ToDuration() - first.ToDuration(), nil
}

// durationFromFFProbe shells out to ffprobe, treating it as an opaque
// metadata reader per the component's contract.
func (p *Probe) durationFromFFProbe(path string) (time.Duration, error) {
	bin := p.FFProbePath
	if bin == "" {
		bin = "ffprobe"
	}
	cmd := exec.Command(bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, err
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}
