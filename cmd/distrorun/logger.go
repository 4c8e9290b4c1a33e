// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// newLogger creates the launch logger. When output is a terminal, uses
// slog.TextHandler for human-readable output; otherwise slog.JSONHandler
// so launches recorded by scripts and CI can be parsed. quiet raises
// the level to Warn.
func newLogger(output io.Writer, quiet bool) *slog.Logger {
	level := slog.LevelInfo
	if quiet {
		level = slog.LevelWarn
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if file, ok := output.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		handler = slog.NewTextHandler(output, options)
	} else {
		handler = slog.NewJSONHandler(output, options)
	}
	return slog.New(handler).With("command", "distrorun")
}
