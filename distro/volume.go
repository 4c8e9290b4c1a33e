// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package distro

import (
	"errors"
)

// ValidateVolume checks that a user-supplied volume is a directory the
// invoking user can reach. The path's own type is inspected without
// following a final symlink, so a symlink to a directory is rejected.
//
// The RealUser capability guarantees the check runs with the user's
// effective uid: as root it would let a user probe or bind-mount paths
// they could not otherwise access.
func ValidateVolume(user *RealUser, path string) error {
	if err := user.live(); err != nil {
		return &Error{Kind: KindValidation, Op: "validate volume", Path: path, Err: err}
	}
	mode, err := user.id.system.Lstat(path)
	if err != nil {
		return &Error{Kind: KindValidation, Op: "failed to access", Path: path, Err: err}
	}
	if !mode.IsDir() {
		return &Error{Kind: KindValidation, Op: "volume", Path: path, Err: errors.New("is not a directory")}
	}
	return nil
}

// ValidateVolumes validates each path in order and stops at the first
// failure.
func ValidateVolumes(user *RealUser, paths []string) error {
	for _, path := range paths {
		if err := ValidateVolume(user, path); err != nil {
			return err
		}
	}
	return nil
}
