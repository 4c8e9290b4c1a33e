// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// distrorun runs a command inside an administrator-configured root
// filesystem. It is installed setuid root so that ordinary users can
// enter a container without any other privilege:
//
//	distrorun [--extra-volume PATH]... [--supervise] NAME COMMAND [ARG...]
//
// NAME selects <config directory>/NAME.yaml (or NAME.jsonc), which
// names the container root and the host directories mapped into it.
// The config directory is fixed when the binary is built:
//
//	go build -ldflags "-X main.configDirectory=/etc/distrorun.d" ./cmd/distrorun
//
// Each --extra-volume is checked with the caller's own permissions
// before anything is mounted, so a user can only map directories they
// could already reach. The container is assembled in a private mount
// namespace; the host mount table is never changed. All privileges are
// dropped before COMMAND runs, and COMMAND starts in the caller's
// working directory when that lies inside the container root, or in
// "/" otherwise.
//
// By default distrorun replaces itself with COMMAND. With --supervise
// it stays as the parent, waits for COMMAND and exits with its status
// (7 if COMMAND was killed by a signal). --dry-run prints the mounts
// that would be made and exits.
package main
