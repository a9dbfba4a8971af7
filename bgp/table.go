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

import "sort"

// Route is a forwarding-table entry (spec.md §3).
type Route struct {
	Network    uint32
	Netmask    uint32
	Peer       string // next-hop peer, the neighbor address that announced this route
	Origin     Origin
	LocalPref  int
	SelfOrigin bool
	ASPath     []int
}

func cloneASPath(p []int) []int {
	out := make([]int, len(p))
	copy(out, p)
	return out
}

// routeFromUpdate builds a Route from an inbound update body, prepending
// selfASN to the received ASPath -- or setting it to just [selfASN] when
// the received path is empty (spec.md §4.D; preserved ambiguity, see
// DESIGN.md Open Question 2).
func routeFromUpdate(body UpdateBody, peer string, selfASN int) (Route, error) {
	network, err := ipToU32(body.Network)
	if err != nil {
		return Route{}, err
	}
	mask, err := ipToU32(body.Netmask)
	if err != nil {
		return Route{}, err
	}

	var path []int
	if len(body.ASPath) == 0 {
		path = []int{selfASN}
	} else {
		path = append([]int{selfASN}, body.ASPath...)
	}

	return Route{
		Network:    network,
		Netmask:    mask,
		Peer:       peer,
		Origin:     body.Origin,
		LocalPref:  body.LocalPref,
		SelfOrigin: body.SelfOrigin,
		ASPath:     path,
	}, nil
}

func (r Route) toTableEntry() TableEntry {
	path := cloneASPath(r.ASPath)
	if len(path) > 0 {
		path = path[1:] // strip leading self-AS for dump (§4.H)
	}
	return TableEntry{
		Origin:     r.Origin,
		LocalPref:  r.LocalPref,
		Network:    u32ToIP(r.Network),
		ASPath:     path,
		Netmask:    u32ToIP(r.Netmask),
		Peer:       r.Peer,
		SelfOrigin: r.SelfOrigin,
	}
}

func (r Route) toOutboundUpdate(selfASN int) OutboundUpdateBody {
	path := append([]int{selfASN}, r.ASPath...)
	return OutboundUpdateBody{
		Network: u32ToIP(r.Network),
		Netmask: u32ToIP(r.Netmask),
		ASPath:  path,
	}
}

// Table is the derived forwarding table (component D).
type Table struct {
	routes []Route
}

func NewTable() *Table {
	return &Table{}
}

// Install appends a new route and re-aggregates the table.
func (t *Table) Install(r Route) {
	t.routes = append(t.routes, r)
	t.Aggregate()
}

// Reset clears the table; used before a rebuild-from-log replay.
func (t *Table) Reset() {
	t.routes = nil
}

// Snapshot returns a defensive copy of the current routes, ordered by
// ip_to_u32(network) ascending (spec.md §4.D step 1; also convenient for
// deterministic dump output).
func (t *Table) Snapshot() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	sort.Slice(out, func(i, j int) bool { return out[i].Network < out[j].Network })
	return out
}

// CoveringAll returns every route whose (network, mask) covers addr, used
// by both the data-forwarding path and inbound-relation lookup (§4.F).
func (t *Table) CoveringAll(addr uint32) []Route {
	var out []Route
	for _, r := range t.routes {
		if covers(addr, r.Network, r.Netmask) {
			out = append(out, r)
		}
	}
	return out
}

func sameAttributes(a, b Route) bool {
	if a.Origin != b.Origin || a.LocalPref != b.LocalPref || a.Netmask != b.Netmask ||
		a.SelfOrigin != b.SelfOrigin || a.Peer != b.Peer {
		return false
	}
	if len(a.ASPath) != len(b.ASPath) {
		return false
	}
	for i := range a.ASPath {
		if a.ASPath[i] != b.ASPath[i] {
			return false
		}
	}
	return true
}

// adjacent reports whether the numeric ranges of two same-masked entries
// touch or overlap: the lower entry's range ends at or after the upper
// entry's network minus one (spec.md §4.D step 2).
func adjacent(lower, upper Route) bool {
	if upper.Network < lower.Network {
		lower, upper = upper, lower
	}
	low, high := addrRange(lower.Network, lower.Netmask)
	return low <= upper.Network && upper.Network <= high+1
}

// Aggregate runs the fixed-point merge described in spec.md §4.D: compute
// candidate merges from an immutable snapshot, apply them, repeat until a
// full pass finds nothing to merge (spec.md §9 Design Notes: no
// mutate-during-scan).
func (t *Table) Aggregate() {
	for {
		snapshot := t.Snapshot() // sorted by network ascending

		merged := false

		for i := 0; i < len(snapshot) && !merged; i++ {
			e := snapshot[i]
			for j := 0; j < len(snapshot); j++ {
				if i == j {
					continue
				}
				f := snapshot[j]
				if !sameAttributes(e, f) || !adjacent(e, f) {
					continue
				}

				lower, upper := e, f
				if upper.Network < lower.Network {
					lower, upper = upper, lower
				}

				var kept Route
				if lower.Network == upper.Network {
					// same prefix: duplicate entry, mask unchanged (DESIGN.md
					// Open Question 3).
					kept = lower
				} else {
					kept = lower
					kept.Netmask = cidrToMask(maskToCIDR(lower.Netmask) - 1)
				}

				t.replacePair(e, f, kept)
				merged = true
				break
			}
		}

		if !merged {
			return
		}
	}
}

// replacePair removes both a and b from the live table and appends kept.
// Matching is by value equality: a and b differ only in network, and when
// they are identical duplicates the first two equal entries are removed.
func (t *Table) replacePair(a, b, kept Route) {
	var out []Route
	removedA, removedB := false, false
	for _, r := range t.routes {
		if !removedA && routeEqual(r, a) {
			removedA = true
			continue
		}
		if !removedB && routeEqual(r, b) {
			removedB = true
			continue
		}
		out = append(out, r)
	}
	out = append(out, kept)
	t.routes = out
}

func routeEqual(a, b Route) bool {
	if a.Network != b.Network || a.Netmask != b.Netmask || a.Peer != b.Peer ||
		a.Origin != b.Origin || a.LocalPref != b.LocalPref || a.SelfOrigin != b.SelfOrigin {
		return false
	}
	if len(a.ASPath) != len(b.ASPath) {
		return false
	}
	for i := range a.ASPath {
		if a.ASPath[i] != b.ASPath[i] {
			return false
		}
	}
	return true
}
