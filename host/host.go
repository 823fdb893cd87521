// Copyright (c) 2018, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package host is the shell's external-collaborator boundary: everything
// the interpreter needs from the machine it runs on, but doesn't implement
// itself — process spawning, pipes, an optional pseudo-terminal, and
// structured diagnostics for failures in any of those that aren't part of
// the shell's own user-facing error stream.
package host

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger reports host-environment failures: a process failed to spawn, a
// pipe couldn't be created, a PTY couldn't be opened. These are distinct
// from a shell script's own errors (a command exiting non-zero, a syntax
// error): they're operational diagnostics for whatever embeds the shell,
// the same way a failed accept() is an operator's problem, not the
// listening program's.
//
// The zero Logger discards everything, so a [Runner] or [Session] that
// never configures one behaves exactly as if diagnostics didn't exist.
type Logger struct {
	zl      zerolog.Logger
	enabled bool
}

// NewLogger builds a Logger that writes structured JSON diagnostic lines to
// w. Pass [zerolog.ConsoleWriter] around w for human-readable output during
// development.
func NewLogger(w io.Writer) Logger {
	return Logger{zl: zerolog.New(w).With().Timestamp().Logger(), enabled: true}
}

// SpawnFailed logs a process-spawn failure for path with args, such as a
// missing binary or a permission error surfaced by [os/exec.Cmd.Start].
func (l Logger) SpawnFailed(err error, path string, args []string) {
	if !l.enabled {
		return
	}
	l.zl.Error().Err(err).Str("path", path).Strs("args", args).Msg("spawn failed")
}

// PipeFailed logs a failure to create an [os.Pipe] or named FIFO needed for
// a redirection, process substitution, or pipeline stage. purpose names
// what the pipe was for, e.g. "herestring" or "procsubst".
func (l Logger) PipeFailed(err error, purpose string) {
	if !l.enabled {
		return
	}
	l.zl.Error().Err(err).Str("purpose", purpose).Msg("pipe creation failed")
}

// PTYFailed logs a failure to open or resize a pseudo-terminal.
func (l Logger) PTYFailed(err error) {
	if !l.enabled {
		return
	}
	l.zl.Error().Err(err).Msg("pty failed")
}

// RCWatchFailed logs a failure in the optional rc-file watch set up by
// [Session.WatchRC], such as the watched file being removed out from under it.
func (l Logger) RCWatchFailed(err error, path string) {
	if !l.enabled {
		return
	}
	l.zl.Warn().Err(err).Str("path", path).Msg("rc-file watch failed")
}
