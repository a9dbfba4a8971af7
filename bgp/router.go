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

import (
	"encoding/json"
	"fmt"
)

// Logger is the structured-logging interface the bgp package depends on;
// the concrete zerolog-backed implementation lives in the log package.
// Kept nil-safe the way davidcoles-cue/bgp/pool.go's logger() accessor is:
// callers never need to nil-check.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}

// Counters tracks per-kind message counts, surfaced via Snapshot (§4.H
// supplement).
type Counters struct {
	Handshakes int
	Updates    int
	Withdraws  int
	Data       int
	Dumps      int
	Dropped    int
}

// Router ties together the neighbor table, announcement log, and
// forwarding table behind one value (no package-level statics), per
// spec.md §9 Design Notes and grounded on davidcoles-cue/director.go's
// top-level type shape.
type Router struct {
	selfASN   int
	neighbors *NeighborTable
	rib       *RIB
	table     *Table
	log       Logger
	counters  Counters
}

func NewRouter(selfASN int, neighbors *NeighborTable, logger Logger) *Router {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Router{
		selfASN:   selfASN,
		neighbors: neighbors,
		rib:       NewRIB(),
		table:     NewTable(),
		log:       logger,
	}
}

// send looks up the transport handle for a neighbor and delivers an
// already-encoded datagram, logging (never failing the caller) on error.
func (r *Router) send(to string, data []byte) {
	ep, ok := r.neighbors.Endpoint(to)
	if !ok {
		r.log.Warnf("no transport endpoint for neighbor %s", to)
		return
	}
	if err := ep.Send(data); err != nil {
		r.log.Warnf("send to %s failed: %v", to, err)
	}
}

// Snapshot is a supplemental, non-wire admin query modeled on
// davidcoles-cue/bgp/session.go's Status struct (SPEC_FULL.md §4.H).
type Snapshot struct {
	SelfASN     int      `json:"selfASN"`
	TableSize   int      `json:"tableSize"`
	LogSize     int      `json:"logSize"`
	NeighborLen int      `json:"neighbors"`
	Counters    Counters `json:"counters"`
}

func (r *Router) Snapshot() Snapshot {
	return Snapshot{
		SelfASN:     r.selfASN,
		TableSize:   len(r.table.Snapshot()),
		LogSize:     len(r.rib.Records()),
		NeighborLen: r.neighbors.Len(),
		Counters:    r.counters,
	}
}

// SendHandshakes sends one handshake message to each neighbor at startup
// (spec.md §4.B).
func (r *Router) SendHandshakes() error {
	for _, n := range r.neighbors.All() {
		ourAddr, err := OurAddr(n.Addr)
		if err != nil {
			return fmt.Errorf("bgp: %w", err)
		}
		data, err := encodeEnvelope(ourAddr, n.Addr, KindHandshake, struct{}{})
		if err != nil {
			return err
		}
		r.send(n.Addr, data)
	}
	return nil
}

// HandleDatagram is the message dispatcher (component G): it classifies an
// inbound datagram by kind and invokes the matching component, per the
// action table in spec.md §4.G. Non-fatal errors (malformed JSON, unknown
// neighbor, unknown type) are logged and swallowed, never returned, so one
// bad datagram from a neighbor never halts the loop (spec.md §7).
func (r *Router) HandleDatagram(fromNeighbor string, data []byte) {
	if _, ok := r.neighbors.Lookup(fromNeighbor); !ok {
		r.counters.Dropped++
		r.log.Warnf("dropping datagram from unknown neighbor %s", fromNeighbor)
		return
	}

	kind, err := peekType(data)
	if err != nil {
		r.counters.Dropped++
		r.log.Warnf("dropping malformed datagram from %s: %v", fromNeighbor, err)
		return
	}

	env, err := decodeEnvelope(data)
	if err != nil {
		r.counters.Dropped++
		r.log.Warnf("dropping malformed envelope from %s: %v", fromNeighbor, err)
		return
	}

	switch kind {
	case KindHandshake:
		r.handleHandshake(fromNeighbor)
	case KindUpdate:
		r.handleUpdate(fromNeighbor, env)
	case KindWithdraw:
		r.handleWithdraw(fromNeighbor, env)
	case KindData:
		r.handleData(fromNeighbor, env)
	case KindDump:
		r.handleDump(fromNeighbor, env)
	default:
		r.counters.Dropped++
		r.log.Warnf("dropping unknown message type %q from %s", kind, fromNeighbor)
	}
}

func (r *Router) handleHandshake(fromNeighbor string) {
	r.counters.Handshakes++
	r.rib.AppendHandshake(fromNeighbor)
	// no route payload to install; aggregate is a no-op but kept for
	// symmetry with the component table in spec.md §4.G.
	r.table.Aggregate()
}

func (r *Router) handleUpdate(fromNeighbor string, env Envelope) {
	var body UpdateBody
	if err := json.Unmarshal(env.Msg, &body); err != nil {
		r.counters.Dropped++
		r.log.Warnf("dropping malformed update from %s: %v", fromNeighbor, err)
		return
	}

	r.counters.Updates++
	r.rib.AppendUpdate(fromNeighbor, body)

	route, err := routeFromUpdate(body, fromNeighbor, r.selfASN)
	if err != nil {
		r.log.Warnf("dropping update with malformed prefix from %s: %v", fromNeighbor, err)
		return
	}
	r.table.Install(route)

	r.announceUpdate(fromNeighbor, route)
}

func (r *Router) announceUpdate(learnedFrom string, route Route) {
	learnedRel, _ := r.relationshipOf(learnedFrom)
	for _, n := range r.neighbors.All() {
		if n.Addr == learnedFrom {
			continue
		}
		if !ExportAllowed(learnedRel, n.Relationship) {
			continue
		}
		r.sendUpdate(n.Addr, route)
	}
}

func (r *Router) sendUpdate(to string, route Route) {
	ourAddr, err := OurAddr(to)
	if err != nil {
		r.log.Warnf("cannot compute our address for %s: %v", to, err)
		return
	}
	data, err := encodeEnvelope(ourAddr, to, KindUpdate, route.toOutboundUpdate(r.selfASN))
	if err != nil {
		r.log.Warnf("cannot encode update to %s: %v", to, err)
		return
	}
	r.send(to, data)
}

func (r *Router) handleWithdraw(fromNeighbor string, env Envelope) {
	var entries []WithdrawEntry
	if err := json.Unmarshal(env.Msg, &entries); err != nil {
		r.counters.Dropped++
		r.log.Warnf("dropping malformed withdraw from %s: %v", fromNeighbor, err)
		return
	}

	r.counters.Withdraws++
	learnedRel, _ := r.relationshipOf(fromNeighbor)

	for _, e := range entries {
		if !r.rib.Withdraw(fromNeighbor, e.Network, e.Netmask) {
			continue // unknown prefix: no-op (spec.md §7)
		}
		r.announceWithdraw(fromNeighbor, learnedRel, e)
	}

	r.rebuild()
}

func (r *Router) announceWithdraw(learnedFrom string, learnedRel Relationship, e WithdrawEntry) {
	for _, n := range r.neighbors.All() {
		if n.Addr == learnedFrom {
			continue
		}
		if !ExportAllowed(learnedRel, n.Relationship) {
			continue
		}
		r.sendWithdraw(n.Addr, e)
	}
}

func (r *Router) sendWithdraw(to string, e WithdrawEntry) {
	ourAddr, err := OurAddr(to)
	if err != nil {
		r.log.Warnf("cannot compute our address for %s: %v", to, err)
		return
	}
	data, err := encodeEnvelope(ourAddr, to, KindWithdraw, []WithdrawEntry{e})
	if err != nil {
		r.log.Warnf("cannot encode withdraw to %s: %v", to, err)
		return
	}
	r.send(to, data)
}

// rebuild replays the announcement log through the forwarding-table
// install path with re-announcement suppressed (spec.md §4.C, §4.D).
func (r *Router) rebuild() {
	r.table.Reset()
	for _, rec := range r.rib.Records() {
		if rec.Kind != KindUpdate {
			continue
		}
		route, err := routeFromUpdate(rec.Update, rec.Source, r.selfASN)
		if err != nil {
			continue // already validated on first receipt; defensive only
		}
		r.table.Install(route)
	}
}

func (r *Router) handleData(fromNeighbor string, env Envelope) {
	r.counters.Data++

	dst, err := ipToU32(env.Dst)
	if err != nil {
		r.log.Warnf("dropping data with malformed dst from %s: %v", fromNeighbor, err)
		return
	}

	bestForSrc, inboundRel, inboundKnown := r.inboundRoute(env.Src)
	replyVia := fromNeighbor
	if inboundKnown {
		replyVia = bestForSrc
	}

	candidates := r.table.CoveringAll(dst)
	if len(candidates) == 0 {
		r.sendNoRoute(replyVia, env.Src)
		return
	}

	chosen := Select(candidates, dst)
	nextHopRel, _ := r.relationshipOf(chosen.Peer)

	if !AllowForward(nextHopRel, inboundRel, inboundKnown) {
		r.sendNoRoute(replyVia, env.Src)
		return
	}

	r.forwardData(chosen.Peer, env)
}

// inboundRoute finds the route that best covers the data packet's source
// address -- selecting among candidates exactly as the forwarding path
// does -- and returns its peer (the neighbor that best covers S, per
// spec.md §4.F) alongside that peer's relationship. When such a route
// exists, the "no route" reply is sent via this peer, not via
// fromNeighbor, since a different
// neighbor's announcement may cover S more specifically (spec.md §4.F
// step 3).
func (r *Router) inboundRoute(src string) (peer string, rel Relationship, ok bool) {
	addr, err := ipToU32(src)
	if err != nil {
		return "", 0, false
	}
	candidates := r.table.CoveringAll(addr)
	if len(candidates) == 0 {
		return "", 0, false
	}
	route := Select(candidates, addr)
	rel, ok = r.relationshipOf(route.Peer)
	return route.Peer, rel, ok
}

func (r *Router) forwardData(to string, env Envelope) {
	data, err := encodeEnvelope(env.Src, env.Dst, KindData, json.RawMessage(env.Msg))
	if err != nil {
		r.log.Warnf("cannot encode forwarded data to %s: %v", to, err)
		return
	}
	r.send(to, data)
}

func (r *Router) sendNoRoute(replyVia, dataSrc string) {
	ourAddr, err := OurAddr(replyVia)
	if err != nil {
		r.log.Warnf("cannot compute our address for %s: %v", replyVia, err)
		return
	}
	data, err := encodeEnvelope(ourAddr, dataSrc, KindNoRoute, []any{})
	if err != nil {
		r.log.Warnf("cannot encode no route to %s: %v", replyVia, err)
		return
	}
	r.send(replyVia, data)
}

// handleDump is the dump responder (component H): exactly one table reply
// to the requester (spec.md §9 Design Notes, correcting the source's
// per-neighbor envelope construction).
func (r *Router) handleDump(fromNeighbor string, env Envelope) {
	r.counters.Dumps++

	ourAddr, err := OurAddr(fromNeighbor)
	if err != nil {
		r.log.Warnf("cannot compute our address for %s: %v", fromNeighbor, err)
		return
	}

	routes := r.table.Snapshot()
	entries := make([]TableEntry, len(routes))
	for i, route := range routes {
		entries[i] = route.toTableEntry()
	}

	data, err := encodeEnvelope(ourAddr, fromNeighbor, KindTable, entries)
	if err != nil {
		r.log.Warnf("cannot encode table reply to %s: %v", fromNeighbor, err)
		return
	}
	r.send(fromNeighbor, data)
}

func (r *Router) relationshipOf(addr string) (Relationship, bool) {
	n, ok := r.neighbors.Lookup(addr)
	if !ok {
		return 0, false
	}
	return n.Relationship, true
}
