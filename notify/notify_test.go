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

package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	kind      = "driver-aborted"
	recipient = "ops@example.com"
	message   = "driver aborted: player process exited"
)

func TestSendWithNoSenderIsNoOp(t *testing.T) {
	var n Notifier
	n.Init("", "", "", nil)

	require.NoError(t, n.Send(kind, recipient, message, 1))
	require.NoError(t, n.Send(kind, recipient, message, 1))
}

// debounceStore alternates between reporting the message as recently
// sent and not, to exercise both branches of Send's debounce check.
type debounceStore struct {
	count int
}

func (s *debounceStore) Get(key string) (time.Time, error) {
	s.count++
	if s.count%2 == 0 {
		return time.Now(), nil
	}
	return time.Time{}, nil
}

func (s *debounceStore) Set(key string, t time.Time) error { return nil }

func TestSendRespectsDebounceStore(t *testing.T) {
	var n Notifier
	n.Init("", "", "", &debounceStore{})

	for i := 0; i < 3; i++ {
		assert.NoError(t, n.Send(kind, recipient, message, 60))
	}
}

func TestSendOpsRequiresEmail(t *testing.T) {
	t.Setenv("OPS_EMAIL", "")
	var n Notifier
	n.Init("", "", "", nil)
	assert.Error(t, n.SendOps(kind, message))
}
