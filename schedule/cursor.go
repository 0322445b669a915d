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

package schedule

import "time"

// cursorEpsilon is the extra microsecond folded into the cursor modulus.
// It lets a cursor legally sit exactly at duration (the "played to the
// end" observable state) instead of wrapping back to zero. Preserve this
// quirk exactly — it is observable in persisted output.
const cursorEpsilon = time.Microsecond

// NormalizeCursor reduces x modulo (duration + 1µs), returning a value in
// [0, duration] for any non-negative duration. Negative results from Go's
// truncating "%" are folded back into range.
func NormalizeCursor(x, duration time.Duration) time.Duration {
	mod := duration + cursorEpsilon
	if mod <= 0 {
		return 0
	}
	r := x % mod
	if r < 0 {
		r += mod
	}
	return r
}
