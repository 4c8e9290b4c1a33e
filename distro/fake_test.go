// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package distro

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
)

// fakeEntry is a path known to fakeSystem.
type fakeEntry struct {
	mode fs.FileMode
	// rootOnly entries can only be inspected with effective uid 0,
	// like a directory beneath a 0700 root-owned parent.
	rootOnly bool
}

// fakeSystem records every call and enforces the Linux rules for uid
// transitions: an unprivileged process may only move its uids among
// its current real, effective and saved values.
type fakeSystem struct {
	ruid, euid, suid int
	rgid, egid, sgid int

	entries map[string]fakeEntry
	fail    map[string]error

	notFound   bool
	execErr    error
	waitStatus syscall.WaitStatus
	waitErr    error

	calls []string
}

// newSetuidSystem returns a fake process started from a setuid-root
// binary by the user with the given uid.
func newSetuidSystem(uid int) *fakeSystem {
	return &fakeSystem{
		ruid: uid, euid: 0, suid: 0,
		rgid: uid, egid: uid, sgid: uid,
		entries: make(map[string]fakeEntry),
		fail:    make(map[string]error),
	}
}

func (f *fakeSystem) addDir(path string) {
	f.entries[path] = fakeEntry{mode: fs.ModeDir | 0o755}
}

func (f *fakeSystem) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

// callsWithPrefix returns the recorded calls starting with prefix.
func (f *fakeSystem) callsWithPrefix(prefix string) []string {
	var matching []string
	for _, call := range f.calls {
		if strings.HasPrefix(call, prefix) {
			matching = append(matching, call)
		}
	}
	return matching
}

// mountCalls returns every recorded call that changes the mount table
// or namespace.
func (f *fakeSystem) mountCalls() []string {
	var matching []string
	for _, call := range f.calls {
		for _, prefix := range []string{"unshare", "make-rprivate", "bind", "mount", "chroot"} {
			if strings.HasPrefix(call, prefix) {
				matching = append(matching, call)
				break
			}
		}
	}
	return matching
}

func (f *fakeSystem) privileged(op string) error {
	if err := f.fail[op]; err != nil {
		return err
	}
	if f.euid != 0 {
		return syscall.EPERM
	}
	return nil
}

func (f *fakeSystem) Getresuid() (int, int, int) { return f.ruid, f.euid, f.suid }
func (f *fakeSystem) Getresgid() (int, int, int) { return f.rgid, f.egid, f.sgid }

func (f *fakeSystem) Seteuid(euid int) error {
	f.record("seteuid %d", euid)
	if err := f.fail["seteuid"]; err != nil {
		return err
	}
	if f.euid != 0 && euid != f.ruid && euid != f.suid && euid != f.euid {
		return syscall.EPERM
	}
	f.euid = euid
	return nil
}

func (f *fakeSystem) Setresuid(ruid, euid, suid int) error {
	f.record("setresuid %d %d %d", ruid, euid, suid)
	if err := f.fail["setresuid"]; err != nil {
		return err
	}
	current := []int{f.ruid, f.euid, f.suid}
	if f.euid != 0 {
		for _, id := range []int{ruid, euid, suid} {
			if id != -1 && !slices.Contains(current, id) {
				return syscall.EPERM
			}
		}
	}
	if ruid != -1 {
		f.ruid = ruid
	}
	if euid != -1 {
		f.euid = euid
	}
	if suid != -1 {
		f.suid = suid
	}
	return nil
}

func (f *fakeSystem) Setresgid(rgid, egid, sgid int) error {
	f.record("setresgid %d %d %d", rgid, egid, sgid)
	if err := f.privileged("setresgid"); err != nil {
		return err
	}
	f.rgid, f.egid, f.sgid = rgid, egid, sgid
	return nil
}

func (f *fakeSystem) Lstat(path string) (fs.FileMode, error) {
	f.record("lstat %s as %d", path, f.euid)
	entry, ok := f.entries[path]
	if !ok {
		return 0, syscall.ENOENT
	}
	if entry.rootOnly && f.euid != 0 {
		return 0, syscall.EACCES
	}
	return entry.mode, nil
}

func (f *fakeSystem) Unshare() error {
	f.record("unshare")
	return f.privileged("unshare")
}

func (f *fakeSystem) MakeRPrivate(path string) error {
	f.record("make-rprivate %s", path)
	return f.privileged("make-rprivate")
}

func (f *fakeSystem) BindMount(source, root, relative string) error {
	f.record("bind %s %s", source, filepath.Join(root, relative))
	if err := f.fail["bind "+source]; err != nil {
		return err
	}
	return f.privileged("bind")
}

func (f *fakeSystem) MountPseudo(fstype, target string) error {
	f.record("mount %s %s", fstype, target)
	return f.privileged("mount " + fstype)
}

func (f *fakeSystem) Chroot(path string) error {
	f.record("chroot %s", path)
	return f.privileged("chroot")
}

func (f *fakeSystem) Chdir(path string) error {
	f.record("chdir %s as %d", path, f.euid)
	if err := f.fail["chdir "+path]; err != nil {
		return err
	}
	return nil
}

func (f *fakeSystem) LookPath(file string, env []string) (string, error) {
	if f.notFound {
		return "", ErrNotFound
	}
	if strings.Contains(file, "/") {
		return file, nil
	}
	return "/usr/bin/" + file, nil
}

func (f *fakeSystem) Exec(path string, argv, env []string) error {
	f.record("exec %s %s as %d/%d/%d", path, strings.Join(argv, " "), f.ruid, f.euid, f.suid)
	return f.execErr
}

func (f *fakeSystem) Start(path string, argv, env []string) (Process, error) {
	f.record("start %s %s as %d/%d/%d", path, strings.Join(argv, " "), f.ruid, f.euid, f.suid)
	if err := f.fail["start"]; err != nil {
		return nil, err
	}
	return &fakeProcess{status: f.waitStatus, err: f.waitErr}, nil
}

type fakeProcess struct {
	status syscall.WaitStatus
	err    error
}

func (p *fakeProcess) Pid() int { return 4242 }

func (p *fakeProcess) Wait() (syscall.WaitStatus, error) {
	return p.status, p.err
}

// exitedStatus builds the wait status of a process that exited with
// code.
func exitedStatus(code int) syscall.WaitStatus {
	return syscall.WaitStatus(code << 8)
}

// signaledStatus builds the wait status of a process killed by signal.
func signaledStatus(signal syscall.Signal) syscall.WaitStatus {
	return syscall.WaitStatus(signal)
}
