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

package media

import "time"

// FixedProber is a Prober that returns a fixed duration per path, for
// tests that should not touch the filesystem.
type FixedProber map[string]time.Duration

func (f FixedProber) Duration(path string) (time.Duration, error) {
	d, ok := f[path]
	if !ok {
		return 0, ErrUnreadableMedia
	}
	return d, nil
}
