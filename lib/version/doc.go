// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for distrorun.
//
// # Build information
//
// [Version], [Revision] and [Modified] are injected at release time via
// -ldflags -X. Without an injected revision, [String] falls back to the
// VCS stamp the Go toolchain embeds, and then to "unknown".
//
// [String] is the one-line form; [Full] adds the Go version, the
// platform and the binary digest for --version.
//
// # Binary identity
//
// [SelfDigest] returns the BLAKE3 digest of the running binary. A
// setuid program is worth identifying exactly: the digest printed by
// --version can be compared with the one recorded at install time.
package version
