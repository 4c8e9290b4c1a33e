// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package distro

import (
	"errors"
	"fmt"
)

// Exit statuses produced by distrorun. Any embedding front end must
// preserve these; in supervise mode every other status is the
// command's own.
const (
	ExitNotPrivileged = 1
	ExitUsage         = 2
	ExitPrivilege     = 3
	ExitConfig        = 4
	ExitSetup         = 5
	ExitValidation    = 6
	ExitChildSignaled = 7
	ExitIndeterminate = 8
	ExitCannotExecute = 126
	ExitNotFound      = 127
)

// Kind classifies a failure for reporting and exit-status selection.
type Kind int

const (
	KindUsage Kind = iota + 1
	KindNotPrivileged
	KindConfig
	KindValidation
	KindPrivilege
	KindSetup
	KindLaunch
)

func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindNotPrivileged:
		return "not-privileged"
	case KindConfig:
		return "config"
	case KindValidation:
		return "validation"
	case KindPrivilege:
		return "privilege"
	case KindSetup:
		return "setup"
	case KindLaunch:
		return "launch"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ErrStaleToken is returned when a privilege token is used after a
// transition has consumed it.
var ErrStaleToken = errors.New("privilege token already consumed")

// ErrOutOfOrder is returned when a mount phase is used before it was
// produced by the preceding phase, or after it has been consumed.
var ErrOutOfOrder = errors.New("mount phase used out of order")

// ErrNotFound is returned by [System.LookPath] when no executable
// matches the command name.
var ErrNotFound = errors.New("executable file not found in PATH")

// Error is a failure of one step of the launch sequence. Op names the
// step, Path the file it was operating on (may be empty), and Err the
// underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	message := e.Op
	if e.Path != "" {
		message += " " + e.Path
	}
	if e.Err != nil {
		message += ": " + e.Err.Error()
	}
	return message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit status for this failure.
func (e *Error) ExitCode() int {
	switch e.Kind {
	case KindUsage:
		return ExitUsage
	case KindNotPrivileged:
		return ExitNotPrivileged
	case KindConfig:
		return ExitConfig
	case KindValidation:
		return ExitValidation
	case KindPrivilege:
		return ExitPrivilege
	case KindSetup:
		return ExitSetup
	case KindLaunch:
		if errors.Is(e.Err, ErrNotFound) {
			return ExitNotFound
		}
		return ExitCannotExecute
	default:
		return 1
	}
}

// IsKind reports whether err carries an [Error] of the given kind.
func IsKind(err error, kind Kind) bool {
	var distroErr *Error
	return errors.As(err, &distroErr) && distroErr.Kind == kind
}

func usageError(op, path string, err error) error {
	return &Error{Kind: KindUsage, Op: op, Path: path, Err: err}
}

func privilegeError(op string, err error) error {
	return &Error{Kind: KindPrivilege, Op: op, Err: err}
}

func setupError(op, path string, err error) error {
	return &Error{Kind: KindSetup, Op: op, Path: path, Err: err}
}
