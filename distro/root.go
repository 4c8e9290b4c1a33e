// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package distro

import (
	"path/filepath"
	"strings"
)

// Jail is a completed container: the calling thread's root is the
// container root and /proc and /sys are mounted inside it. A Jail is
// required by [Root.Drop].
type Jail struct {
	root   *Root
	target string
}

// Target returns the host path of the container root.
func (j *Jail) Target() string { return j.target }

func (j *Jail) live() error {
	if j == nil || j.root == nil {
		return ErrOutOfOrder
	}
	return nil
}

// EnterRoot chroots the calling thread into the container root, moves
// to its "/" and mounts fresh proc and sysfs filesystems. No further
// volumes can be bound afterwards; the receiver is consumed.
func (p *PrivateNamespace) EnterRoot() (*Jail, error) {
	if err := p.live(); err != nil {
		return nil, setupError("failed to chroot to", p.targetOrEmpty(), err)
	}
	p.spent = true

	system := p.root.id.system
	if err := system.Chroot(p.target); err != nil {
		return nil, setupError("failed to chroot to", p.target, err)
	}
	if err := system.Chdir("/"); err != nil {
		return nil, setupError("failed to chdir to new root", "/", err)
	}
	if err := system.MountPseudo("proc", "/proc"); err != nil {
		return nil, setupError("failed to mount", "/proc", err)
	}
	if err := system.MountPseudo("sysfs", "/sys"); err != nil {
		return nil, setupError("failed to mount", "/sys", err)
	}
	return &Jail{root: p.root, target: p.target}, nil
}

func (p *PrivateNamespace) targetOrEmpty() string {
	if p == nil {
		return ""
	}
	return p.target
}

// ResolveWorkDir maps a host working directory into the container. If
// workDir lies at or beneath root, the result is the same directory as
// seen from inside the container and mapped is true. Otherwise the
// result is "/".
func ResolveWorkDir(root, workDir string) (resolved string, mapped bool) {
	relative, err := filepath.Rel(root, workDir)
	if err != nil || filepath.IsAbs(relative) {
		return "/", false
	}
	for _, component := range strings.Split(relative, string(filepath.Separator)) {
		if component == ".." {
			return "/", false
		}
	}
	return filepath.Join("/", relative), true
}
