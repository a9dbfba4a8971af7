/*
 * VC5 load balancer. Copyright (C) 2021-present David Coles
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package bgp

// Select reduces a non-empty candidate set to a single route by applying,
// in order, the six tie-breakers of spec.md §4.E, stopping as soon as one
// candidate remains. Candidate order is preserved through every step, so
// ties falling through to "return the first candidate" behave
// deterministically on the caller's original ordering.
func Select(candidates []Route, dst uint32) Route {
	c := candidates

	// 1. Longest prefix match against dst, comparing raw bits of network
	// against dst -- the candidate's own netmask is not consulted here
	// (DESIGN.md Open Question 1; preserved source behavior).
	c = filterMax(c, func(r Route) int { return lpmLength(dst, r.Network) })

	// 2. Highest localpref.
	c = filterMax(c, func(r Route) int { return r.LocalPref })

	// 3. selfOrigin = true preferred; if none qualifies, keep all.
	if self := filterSelfOrigin(c); len(self) > 0 {
		c = self
	}

	// 4. Shortest ASPath length.
	c = filterMin(c, func(r Route) int { return len(r.ASPath) })

	// 5. Best origin: IGP > EGP > UNK.
	c = filterMax(c, func(r Route) int { return originRank(r.Origin) })

	// 6. Lowest peer IP, numeric.
	c = filterMin(c, func(r Route) int { return int(mustIPToU32(r.Peer)) })

	return c[0]
}

func originRank(o Origin) int {
	switch o {
	case OriginIGP:
		return 2
	case OriginEGP:
		return 1
	default: // UNK
		return 0
	}
}

func mustIPToU32(addr string) uint32 {
	v, err := ipToU32(addr)
	if err != nil {
		return 0xFFFFFFFF // unparsable peer sorts last, never first
	}
	return v
}

func filterMax(c []Route, key func(Route) int) []Route {
	if len(c) <= 1 {
		return c
	}
	best := key(c[0])
	for _, r := range c[1:] {
		if k := key(r); k > best {
			best = k
		}
	}
	var out []Route
	for _, r := range c {
		if key(r) == best {
			out = append(out, r)
		}
	}
	return out
}

func filterMin(c []Route, key func(Route) int) []Route {
	if len(c) <= 1 {
		return c
	}
	best := key(c[0])
	for _, r := range c[1:] {
		if k := key(r); k < best {
			best = k
		}
	}
	var out []Route
	for _, r := range c {
		if key(r) == best {
			out = append(out, r)
		}
	}
	return out
}

func filterSelfOrigin(c []Route) []Route {
	var out []Route
	for _, r := range c {
		if r.SelfOrigin {
			out = append(out, r)
		}
	}
	return out
}
