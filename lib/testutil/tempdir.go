// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// RequireRoot skips the test unless the process runs with effective
// uid 0.
func RequireRoot(t *testing.T) {
	t.Helper()
	if os.Geteuid() != 0 {
		t.Skip("requires root (mount namespaces, bind mounts and chroot)")
	}
}

// RequireUnprivileged skips the test when the process runs with
// effective uid 0, which bypasses file permission checks.
func RequireUnprivileged(t *testing.T) {
	t.Helper()
	if os.Geteuid() == 0 {
		t.Skip("permission checks are bypassed when running as root")
	}
}

// WriteFile writes content to path beneath directory, creating parent
// directories as needed, and returns the absolute path.
//
//	path := testutil.WriteFile(t, configDirectory, "build.yaml", "dir: /srv/build\n", 0o644)
func WriteFile(t *testing.T, directory, path, content string, mode os.FileMode) string {
	t.Helper()
	absolutePath := filepath.Join(directory, path)
	if err := os.MkdirAll(filepath.Dir(absolutePath), 0o755); err != nil {
		t.Fatalf("creating parent of %s: %v", absolutePath, err)
	}
	if err := os.WriteFile(absolutePath, []byte(content), mode); err != nil {
		t.Fatalf("writing %s: %v", absolutePath, err)
	}
	return absolutePath
}

// MakeDirectories creates each path beneath directory, with parents.
func MakeDirectories(t *testing.T, directory string, paths ...string) {
	t.Helper()
	for _, path := range paths {
		if err := os.MkdirAll(filepath.Join(directory, path), 0o755); err != nil {
			t.Fatalf("creating %s: %v", path, err)
		}
	}
}
