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

// Package player adapts the playout driver's commands onto VLC's HTTP
// control interface (/requests/status.xml and /requests/playlist.xml).
// Commands are fire-and-forget; status is polled. The driver treats the
// player as best-effort: a failed command is logged and the loop
// continues rather than aborting.
package player

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// State mirrors the handful of playback states VLC's status.xml reports.
type State string

const (
	StateStopped State = "stopped"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateUnknown State = "unknown"
)

// Status is the player's last-polled state.
type Status struct {
	State State
	Time  time.Duration
}

// Player is the capability set the playout driver needs from the media
// player: enqueue, play-from-offset, seek, loop, repeat, pause, stop,
// status.
type Player interface {
	Enqueue(path string) (playlistID string, err error)
	Play(playlistID string) error
	Seek(d time.Duration) error
	Pause() error
	Stop() error
	Loop(on bool) error
	Repeat(on bool) error
	Status() (Status, error)
}

// HTTPPlayer drives VLC's HTTP interface. playlistIDs are cached per path
// for the process lifetime and never evicted, per §5's shared-resource
// note.
type HTTPPlayer struct {
	baseURL  string
	password string
	client   *http.Client

	mu  sync.Mutex
	ids map[string]string
}

// New returns an HTTPPlayer targeting VLC's HTTP interface at host:port,
// authenticating with password (VLC's http interface uses HTTP basic auth
// with an empty username).
func New(host string, port int, password string) *HTTPPlayer {
	return &HTTPPlayer{
		baseURL:  fmt.Sprintf("http://%s:%d", host, port),
		password: password,
		client:   &http.Client{Timeout: 5 * time.Second},
		ids:      make(map[string]string),
	}
}

func (p *HTTPPlayer) Enqueue(path string) (string, error) {
	p.mu.Lock()
	if id, ok := p.ids[path]; ok {
		p.mu.Unlock()
		return id, nil
	}
	p.mu.Unlock()

	if _, err := p.command("in_enqueue", url.Values{"input": {path}}); err != nil {
		return "", fmt.Errorf("player: enqueue %s: %w", path, err)
	}

	id, err := p.findPlaylistID(path)
	if err != nil {
		return "", fmt.Errorf("player: locate playlist id for %s: %w", path, err)
	}

	p.mu.Lock()
	p.ids[path] = id
	p.mu.Unlock()
	return id, nil
}

func (p *HTTPPlayer) Play(playlistID string) error {
	_, err := p.command("pl_play", url.Values{"id": {playlistID}})
	return err
}

func (p *HTTPPlayer) Seek(d time.Duration) error {
	secs := int64(d / time.Second)
	_, err := p.command("seek", url.Values{"val": {strconv.FormatInt(secs, 10)}})
	return err
}

func (p *HTTPPlayer) Pause() error {
	_, err := p.command("pl_pause", nil)
	return err
}

func (p *HTTPPlayer) Stop() error {
	_, err := p.command("pl_stop", nil)
	return err
}

func (p *HTTPPlayer) Loop(on bool) error {
	_, err := p.command(toggleCommand("loop", on), nil)
	return err
}

func (p *HTTPPlayer) Repeat(on bool) error {
	_, err := p.command(toggleCommand("repeat", on), nil)
	return err
}

// toggleCommand exists because VLC's http interface exposes pl_loop and
// pl_repeat as stateless toggles rather than set-to-value commands; the
// driver only ever calls Loop/Repeat once per transition so the toggle
// semantics are equivalent here.
func toggleCommand(which string, _ bool) string {
	return "pl_" + which
}

type statusXML struct {
	State string  `xml:"state"`
	Time  float64 `xml:"time"`
}

func (p *HTTPPlayer) Status() (Status, error) {
	body, err := p.get("/requests/status.xml", nil)
	if err != nil {
		return Status{}, fmt.Errorf("player: status: %w", err)
	}
	var sx statusXML
	if err := xml.Unmarshal(body, &sx); err != nil {
		return Status{}, fmt.Errorf("player: decode status: %w", err)
	}
	return Status{State: toState(sx.State), Time: time.Duration(sx.Time) * time.Second}, nil
}

func toState(s string) State {
	switch strings.ToLower(s) {
	case "stopped":
		return StateStopped
	case "playing":
		return StatePlaying
	case "paused":
		return StatePaused
	default:
		return StateUnknown
	}
}

type playlistXML struct {
	Nodes []playlistNode `xml:"node"`
}

type playlistNode struct {
	Leaves []playlistLeaf `xml:"leaf"`
	Nodes  []playlistNode `xml:"node"`
}

type playlistLeaf struct {
	ID  string `xml:"id,attr"`
	URI string `xml:"uri,attr"`
}

// findPlaylistID walks VLC's playlist tree for the most recently added
// leaf whose URI references path, since in_enqueue does not itself return
// the new item's id.
func (p *HTTPPlayer) findPlaylistID(path string) (string, error) {
	body, err := p.get("/requests/playlist.xml", nil)
	if err != nil {
		return "", err
	}
	var pl playlistXML
	if err := xml.Unmarshal(body, &pl); err != nil {
		return "", err
	}
	var found string
	var walk func(nodes []playlistNode)
	walk = func(nodes []playlistNode) {
		for _, n := range nodes {
			for _, leaf := range n.Leaves {
				if strings.HasSuffix(leaf.URI, path) || strings.Contains(leaf.URI, urlEscapedPath(path)) {
					found = leaf.ID
				}
			}
			walk(n.Nodes)
		}
	}
	walk(pl.Nodes)
	if found == "" {
		return "", fmt.Errorf("no playlist entry found for %s", path)
	}
	return found, nil
}

func urlEscapedPath(path string) string {
	return (&url.URL{Path: path}).String()
}

func (p *HTTPPlayer) command(cmd string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	if cmd != "" {
		params.Set("command", cmd)
	}
	return p.get("/requests/status.xml", params)
}

func (p *HTTPPlayer) get(path string, params url.Values) ([]byte, error) {
	u := p.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth("", p.password)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("player: %s returned HTTP %d", path, resp.StatusCode)
	}
	return body, nil
}
