// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package filehash computes BLAKE3 digests of files and byte slices.
//
// distrorun records the digest of every container configuration it
// loads, so a launch logged as "config_digest=..." can be matched to the
// exact file contents an administrator installed. [FormatDigest] gives
// the 64-character hex form used in log output.
//
// This package depends on no other distrorun packages.
package filehash
