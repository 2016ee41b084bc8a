// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides the process-wide structured logger.
package log

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

// Logger carries contextual key-value pairs through the call tree.
type Logger = *slog.Logger

var root atomic.Pointer[slog.Logger]

func init() {
	root.Store(slog.New(newTerminalHandler(os.Stderr, slog.LevelInfo)))
}

// WithContext returns a logger carrying the given context key-value pairs.
func WithContext(kv ...any) Logger {
	return root.Load().With(kv...)
}

// Init replaces the root logger with one writing to w at the given level.
// Loggers obtained from WithContext before Init keep the old destination.
func Init(w io.Writer, level slog.Level) {
	root.Store(slog.New(newTerminalHandler(w, level)))
}

// InitDiscard silences the root logger, for tests.
func InitDiscard() {
	root.Store(slog.New(slog.DiscardHandler))
}

// ParseLevel maps a verbosity number (0..4) to a slog level.
func ParseLevel(verbosity int) slog.Level {
	switch {
	case verbosity <= 0:
		return slog.LevelError
	case verbosity == 1:
		return slog.LevelWarn
	case verbosity <= 3:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

func newTerminalHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}
