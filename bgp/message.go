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

	"github.com/buger/jsonparser"
)

// Kind is the wire message type (§6).
type Kind string

const (
	KindHandshake Kind = "handshake"
	KindUpdate    Kind = "update"
	KindWithdraw  Kind = "withdraw"
	KindData      Kind = "data"
	KindDump      Kind = "dump"
	KindTable     Kind = "table"
	KindNoRoute   Kind = "no route"
)

// Origin is the announcement origin attribute.
type Origin string

const (
	OriginIGP Origin = "IGP"
	OriginEGP Origin = "EGP"
	OriginUNK Origin = "UNK"
)

// Envelope is the common wire wrapper: {src, dst, type, msg} (§6).
type Envelope struct {
	Src  string          `json:"src"`
	Dst  string          `json:"dst"`
	Type Kind            `json:"type"`
	Msg  json.RawMessage `json:"msg"`
}

// UpdateBody is the inbound update msg shape (§6).
type UpdateBody struct {
	Network    string `json:"network"`
	Netmask    string `json:"netmask"`
	LocalPref  int    `json:"localpref"`
	ASPath     []int  `json:"ASPath"`
	Origin     Origin `json:"origin"`
	SelfOrigin bool   `json:"selfOrigin"`
}

// OutboundUpdateBody is the re-announced update msg shape: only network,
// netmask and ASPath are carried onward (§6).
type OutboundUpdateBody struct {
	Network string `json:"network"`
	Netmask string `json:"netmask"`
	ASPath  []int  `json:"ASPath"`
}

// WithdrawEntry identifies a (network, netmask) pair in a withdraw msg,
// which is a list of these (§6).
type WithdrawEntry struct {
	Network string `json:"network"`
	Netmask string `json:"netmask"`
}

// TableEntry is one row of a dump's table reply: all attribute fields,
// ASPath with the leading self-AS element stripped (§4.H, §6).
type TableEntry struct {
	Origin     Origin `json:"origin"`
	LocalPref  int    `json:"localpref"`
	Network    string `json:"network"`
	ASPath     []int  `json:"ASPath"`
	Netmask    string `json:"netmask"`
	Peer       string `json:"peer"`
	SelfOrigin bool   `json:"selfOrigin"`
}

// peekType cheaply classifies an inbound datagram's "type" field without
// paying for a full struct unmarshal of msg, which may be large or,
// for a malformed datagram, entirely absent (component G ambient note,
// SPEC_FULL.md §4.G).
func peekType(data []byte) (Kind, error) {
	t, err := jsonparser.GetString(data, "type")
	if err != nil {
		return "", fmt.Errorf("bgp: cannot read message type: %w", err)
	}
	return Kind(t), nil
}

// decodeEnvelope fully parses the common envelope fields; callers then
// decode Msg per kind.
func decodeEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("bgp: malformed envelope: %w", err)
	}
	return e, nil
}

func encodeEnvelope(src, dst string, kind Kind, msg any) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("bgp: cannot encode %s msg: %w", kind, err)
	}
	return json.Marshal(Envelope{Src: src, Dst: dst, Type: kind, Msg: body})
}
