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

// Package log provides the structured logger the router depends on. It
// mirrors davidcoles-cue/log/log.go's nil-safe shape (a thin interface plus
// a no-op implementation) but backs the concrete implementation with
// zerolog rather than leaving it as an empty stub.
package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the subset of zerolog-style structured logging the router
// package needs; it satisfies bgp.Logger.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

// Nop discards everything. Useful as a default when no logger is wired in,
// matching davidcoles-cue/log/log.go's Nil.
type Nop struct{}

func (Nop) Debugf(string, ...any) {}
func (Nop) Warnf(string, ...any)  {}

// Zerolog adapts a zerolog.Logger to the Logger interface.
type Zerolog struct {
	l zerolog.Logger
}

// New builds a console-writer zerolog logger at the given level, writing
// to w (os.Stderr in normal operation).
func New(w io.Writer, debug bool) Zerolog {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	l := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
		Level(level).
		With().Timestamp().Logger()

	return Zerolog{l: l}
}

// NewDefault is a convenience wrapper around New writing to os.Stderr.
func NewDefault(debug bool) Zerolog {
	return New(os.Stderr, debug)
}

func (z Zerolog) Debugf(format string, args ...any) {
	z.l.Debug().Msgf(format, args...)
}

func (z Zerolog) Warnf(format string, args ...any) {
	z.l.Warn().Msgf(format, args...)
}

func (z Zerolog) Errorf(format string, args ...any) {
	z.l.Error().Msgf(format, args...)
}

func (z Zerolog) Fatalf(format string, args ...any) {
	z.l.Fatal().Msgf(format, args...)
}
