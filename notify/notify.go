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

// Package notify emails an operator when the playout driver aborts —
// the one user-visible event the core design calls out as needing to
// leave the process (§7's "Fatal runtime" class).
package notify

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	mailjet "github.com/mailjet/mailjet-apiv3-go"
)

const defaultOpsPeriodMinutes = 60

// TimeStore tracks when a notification of a given kind was last sent, so
// Notifier can debounce repeated failures instead of paging an operator
// once per tick.
type TimeStore interface {
	Set(key string, t time.Time) error
	Get(key string) (time.Time, error)
}

// memStore is the default TimeStore: an in-process map, sufficient for a
// single driver run's lifetime.
type memStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func newMemStore() *memStore { return &memStore{seen: make(map[string]time.Time)} }

func (m *memStore) Set(key string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[key] = t
	return nil
}

func (m *memStore) Get(key string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[key], nil
}

// Notifier sends operator emails through Mailjet, debounced by kind and
// recipient through its TimeStore.
type Notifier struct {
	mu         sync.Mutex
	sender     string
	publicKey  string
	privateKey string
	store      TimeStore
}

// Init configures the notifier. sender is the from-address; an empty
// sender disables actually sending mail (tests rely on this). publicKey
// and privateKey are the Mailjet API credentials; store is optional and
// defaults to an in-memory debounce map.
func (n *Notifier) Init(sender, publicKey, privateKey string, store TimeStore) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sender = sender
	n.publicKey = publicKey
	n.privateKey = privateKey
	if store == nil {
		store = newMemStore()
	}
	n.store = store
}

// SendOps sends an email to OPS_EMAIL, at most once every OPS_PERIOD
// minutes per kind. It returns an error if OPS_EMAIL is unset.
func (n *Notifier) SendOps(kind, msg string) error {
	recipient := os.Getenv("OPS_EMAIL")
	if recipient == "" {
		return errors.New("notify: OPS_EMAIL undefined")
	}
	mins := defaultOpsPeriodMinutes
	if v := os.Getenv("OPS_PERIOD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			mins = n
		} else {
			log.Printf("notify: bad OPS_PERIOD %q, defaulting to %d", v, defaultOpsPeriodMinutes)
		}
	}
	return n.Send(kind, recipient, msg, mins)
}

// Send emails recipient, unless the same kind of message was already
// sent to them within the last mins minutes.
func (n *Notifier) Send(kind, recipient, msg string, mins int) error {
	key := kind + "." + recipient
	if n.store != nil {
		last, err := n.store.Get(key)
		if err != nil {
			log.Printf("notify: error reading last-sent time: %v", err)
		} else if time.Since(last) < time.Duration(mins)*time.Minute {
			log.Printf("notify: too soon to send %s another %s message", recipient, kind)
			return nil
		}
	}

	log.Printf("notify: sending %s a %s message", recipient, kind)

	if n.sender != "" {
		clt := mailjet.NewMailjetClient(n.publicKey, n.privateKey)
		info := []mailjet.InfoMessagesV31{{
			From:     &mailjet.RecipientV31{Email: n.sender},
			To:       &mailjet.RecipientsV31{mailjet.RecipientV31{Email: recipient}},
			Subject:  strings.Title(kind) + " notification",
			TextPart: msg,
		}}
		if _, err := clt.SendMailV31(&mailjet.MessagesV31{Info: info}); err != nil {
			return fmt.Errorf("notify: send mail: %w", err)
		}
	}

	if n.store != nil {
		if err := n.store.Set(key, time.Now()); err != nil {
			log.Printf("notify: error recording sent time: %v", err)
		}
	}
	return nil
}
