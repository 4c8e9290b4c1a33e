// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package distro

import (
	"io/fs"
	"syscall"
)

// System is the set of operating system calls the launch sequence
// performs. Namespace, root and working-directory operations affect
// only the calling OS thread once the mount namespace has been
// unshared; uid operations affect the whole process.
type System interface {
	// Getresuid returns the real, effective and saved user IDs.
	Getresuid() (ruid, euid, suid int)
	// Getresgid returns the real, effective and saved group IDs.
	Getresgid() (rgid, egid, sgid int)
	// Seteuid sets the effective user ID.
	Seteuid(euid int) error
	// Setresuid sets all three user IDs in one call.
	Setresuid(ruid, euid, suid int) error
	// Setresgid sets all three group IDs in one call.
	Setresgid(rgid, egid, sgid int) error

	// Lstat returns the mode of path without following a final symlink.
	Lstat(path string) (fs.FileMode, error)

	// Unshare detaches the calling thread from the shared mount
	// namespace and filesystem attributes.
	Unshare() error
	// MakeRPrivate recursively sets the propagation of the mount at
	// path to private.
	MakeRPrivate(path string) error
	// BindMount recursively bind-mounts source onto the directory
	// relative beneath root. The mountpoint must be reached without
	// following symlinks and without leaving root.
	BindMount(source, root, relative string) error
	// MountPseudo mounts a fresh pseudo-filesystem of type fstype at
	// target.
	MountPseudo(fstype, target string) error
	// Chroot changes the root directory.
	Chroot(path string) error
	// Chdir changes the working directory.
	Chdir(path string) error

	// LookPath resolves a command name to an executable path using the
	// PATH found in env. Only absolute PATH entries are searched.
	LookPath(file string, env []string) (string, error)
	// Exec replaces the current process image. It returns only on
	// failure.
	Exec(path string, argv, env []string) error
	// Start runs path as a child of the calling thread, sharing the
	// standard streams, and returns a handle to wait on it.
	Start(path string, argv, env []string) (Process, error)
}

// Process is a started child.
type Process interface {
	// Pid returns the child's process ID.
	Pid() int
	// Wait blocks until the child terminates.
	Wait() (syscall.WaitStatus, error)
}
