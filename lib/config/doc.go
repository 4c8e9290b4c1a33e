// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads per-container configuration for distrorun.
//
// Each container is described by one file in a fixed configuration
// directory, named after the container: <directory>/<name>.yaml or
// <directory>/<name>.jsonc. The directory is compiled into the binary.
// There is no flag, environment variable or search path that changes
// it, because the file decides which host directories a setuid program
// will mount for an unprivileged caller.
//
// A configuration names the container root and the host directories
// mapped into it:
//
//	dir: /srv/containers/build
//	mapped_volumes:
//	  - /usr
//	  - /srv/shared/cache
//
// Unknown keys are rejected rather than ignored, so a misspelled key
// cannot silently drop a volume. With [Loader].RequireRootOwned the
// file must be owned by root and writable by nobody else.
//
// Key exports:
//
//   - [Container] -- a loaded and validated configuration
//   - [Loader] and [Loader.Load] -- the single entry point for loading
//   - [DefaultDirectory] -- the directory used when none is compiled in
//
// This package depends on lib/filehash for the configuration digest.
package config
