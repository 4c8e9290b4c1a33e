// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package distro

import (
	"os"
	"path/filepath"
	"testing"
)

// currentUser returns a RealUser capability for the test process
// itself, backed by the real system. Lstat is the only call it makes.
func currentUser() *RealUser {
	return &RealUser{id: &identity{system: NewSystem(), uid: os.Getuid(), gid: os.Getgid(), egid: os.Getegid()}}
}

func TestValidateVolumeOnDisk(t *testing.T) {
	t.Parallel()

	directory := t.TempDir()
	file := filepath.Join(directory, "file")
	if err := os.WriteFile(file, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(directory, "target")
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(directory, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		path  string
		valid bool
	}{
		{"directory", target, true},
		{"temp root", directory, true},
		{"regular file", file, false},
		{"symlink to directory", link, false},
		{"missing", filepath.Join(directory, "missing"), false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateVolume(currentUser(), test.path)
			if test.valid && err != nil {
				t.Errorf("ValidateVolume(%s): %v", test.path, err)
			}
			if !test.valid && !IsKind(err, KindValidation) {
				t.Errorf("ValidateVolume(%s): expected validation error, got %v", test.path, err)
			}
		})
	}
}
