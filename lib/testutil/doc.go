// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for distrorun packages.
//
// [RequireRoot] and [RequireUnprivileged] gate tests on the effective
// uid of the test process. Tests that unshare mount namespaces, bind
// volumes or chroot need real root and are skipped elsewhere; tests
// that assert a permission failure are meaningless when run as root,
// since root bypasses the checks they exercise.
//
// [WriteFile] and [MakeDirectories] build fixture trees (configuration
// directories, container roots) beneath t.TempDir().
//
// [RequireReceive] bounds a wait on a channel with a timer, so tests
// that start a real command fail instead of hanging when it gets stuck.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no distrorun-internal dependencies.
package testutil
