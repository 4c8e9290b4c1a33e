// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package distro runs a command inside an administrator-configured root
// filesystem on behalf of an unprivileged user. It is the core of the
// setuid-root distrorun binary.
//
// The package is organized around the order in which privileged work
// must happen. Each step hands out a value that the next step requires,
// so the sequence cannot be reordered by a caller:
//
//   - [Acquire] checks that the process really is setuid-root and
//     returns a [Root] capability.
//   - [Root.AsRealUser] lowers the effective uid to the invoking user
//     and returns a [RealUser]; [ValidateVolume] only accepts a RealUser,
//     so user-supplied volumes are always inspected with the user's
//     filesystem permissions. [RealUser.Restore] returns to root.
//   - [Isolate] unshares the mount namespace, [Namespace.MakePrivate]
//     severs mount propagation, and only the resulting
//     [PrivateNamespace] can [PrivateNamespace.Bind] volumes.
//   - [PrivateNamespace.EnterRoot] chroots into the target root and
//     mounts /proc and /sys, producing a [Jail].
//   - [Root.Drop] takes the Jail and sets the real, effective and saved
//     uid to the invoking user in a single call.
//
// Every capability is single-use: a transition consumes its receiver,
// and a consumed value returns [ErrStaleToken] (privilege tokens) or
// [ErrOutOfOrder] (mount phases) from every method.
//
// [Launcher] drives the whole sequence from a [Request] and ends in one
// of two terminal operations. [Launcher.Exec] replaces the current
// process image with the command. [Launcher.Supervise] starts the
// command as a child of the isolated thread, waits for it and returns
// an [Outcome].
//
// All operating system access goes through the [System] interface.
// [NewSystem] returns the Linux implementation.
package distro
