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

// Package transport implements the one-UDP-endpoint-per-neighbor datagram
// layer described in spec.md §5/§6. It is a deliberately synchronous,
// single-threaded poller: no reader/writer goroutines, no channels, no
// shared mutable state across tasks, matching spec.md §5's "single
// threaded cooperative" model. This is a rewrite, not an adaptation, of
// davidcoles-cue/bgp/connection.go's reader/writer-goroutine pair, which
// exists to serve a persistent TCP BGP session and does not fit a
// round-robin datagram poll; the connection-wrapper *shape* (one struct
// owning one conn, an Error field, explicit close) is kept.
package transport

import (
	"fmt"
	"net"
	"time"
)

const maxDatagram = 65535

// Endpoint is one neighbor's UDP socket: bound to an ephemeral local port,
// "connected" to localhost:<port> for that neighbor, so Write always
// targets the right peer and Read only accepts datagrams from it.
type Endpoint struct {
	Addr  string // neighbor's dotted-quad address
	Error string
	conn  *net.UDPConn
}

// NewEndpoint dials a connected UDP socket to localhost:remotePort (§6:
// "messages sent to localhost:<port> for that neighbor").
func NewEndpoint(addr string, remotePort int) (*Endpoint, error) {
	raddr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: remotePort}

	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial neighbor %s on port %d: %w", addr, remotePort, err)
	}

	return &Endpoint{Addr: addr, conn: conn}, nil
}

// Send implements bgp.Endpoint.
func (e *Endpoint) Send(data []byte) error {
	if len(data) > maxDatagram {
		return fmt.Errorf("transport: datagram to %s exceeds %d bytes", e.Addr, maxDatagram)
	}
	_, err := e.conn.Write(data)
	if err != nil {
		e.Error = err.Error()
	}
	return err
}

// receive attempts one read within deadline, returning (nil, false, nil) on
// a plain timeout (nothing pending from this neighbor this round).
func (e *Endpoint) receive(deadline time.Duration) ([]byte, bool, error) {
	if err := e.conn.SetReadDeadline(time.Now().Add(deadline)); err != nil {
		return nil, false, err
	}

	buf := make([]byte, maxDatagram)
	n, err := e.conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, false, nil
		}
		return nil, false, err
	}

	return buf[:n], true, nil
}

func (e *Endpoint) Close() error {
	return e.conn.Close()
}

// Handler processes one inbound datagram to completion -- including any
// outbound sends it triggers -- before Pool.PollOnce moves to the next
// neighbor (spec.md §5 ordering guarantee).
type Handler func(fromNeighbor string, data []byte)

// Pool owns every neighbor's Endpoint and drives the round-robin readiness
// poll described in spec.md §5 ("waits on all endpoints with a bounded
// readiness delay (~100ms)").
type Pool struct {
	endpoints []*Endpoint
}

func NewPool() *Pool {
	return &Pool{}
}

func (p *Pool) Add(ep *Endpoint) {
	p.endpoints = append(p.endpoints, ep)
}

func (p *Pool) Endpoint(addr string) (*Endpoint, bool) {
	for _, ep := range p.endpoints {
		if ep.Addr == addr {
			return ep, true
		}
	}
	return nil, false
}

func (p *Pool) Close() {
	for _, ep := range p.endpoints {
		ep.Close()
	}
}

// PollOnce performs a single round over every neighbor, splitting the
// overall readiness budget evenly across them, and invokes handler for
// each datagram found, processing it to completion before reading the
// next neighbor's socket.
func (p *Pool) PollOnce(readyDelay time.Duration, handler Handler) error {
	if len(p.endpoints) == 0 {
		time.Sleep(readyDelay)
		return nil
	}

	perNeighbor := readyDelay / time.Duration(len(p.endpoints))
	if perNeighbor <= 0 {
		perNeighbor = time.Millisecond
	}

	for _, ep := range p.endpoints {
		data, ok, err := ep.receive(perNeighbor)
		if err != nil {
			return fmt.Errorf("transport: read from %s: %w", ep.Addr, err)
		}
		if !ok {
			continue
		}
		handler(ep.Addr, data)
	}

	return nil
}

// Run polls forever until stop is closed.
func (p *Pool) Run(readyDelay time.Duration, handler Handler, stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			return nil
		default:
		}
		if err := p.PollOnce(readyDelay, handler); err != nil {
			return err
		}
	}
}
