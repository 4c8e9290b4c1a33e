// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package distro

import (
	"fmt"
	"path/filepath"
)

// Namespace is a freshly unshared mount namespace whose mounts still
// share propagation with the host. Its only use is [Namespace.MakePrivate].
type Namespace struct {
	root   *Root
	target string
	spent  bool
}

// PrivateNamespace is a mount namespace whose root has been remounted
// recursively private. It is the only phase in which volumes can be
// bind-mounted.
type PrivateNamespace struct {
	root   *Root
	target string
	spent  bool
}

// Isolate detaches the calling thread into a new mount namespace with
// its own filesystem attributes. The caller must keep the goroutine
// locked to its OS thread for the rest of the sequence. target is the
// container root the namespace is being built for.
func Isolate(root *Root, target string) (*Namespace, error) {
	if err := root.live(); err != nil {
		return nil, privilegeError("unshare mount namespace", err)
	}
	if err := root.id.system.Unshare(); err != nil {
		return nil, setupError("unshare mount namespace", "", err)
	}
	return &Namespace{root: root, target: target}, nil
}

// MakePrivate recursively remounts "/" as private so that bind-mounts
// made next do not propagate to the host. The receiver is consumed.
func (n *Namespace) MakePrivate() (*PrivateNamespace, error) {
	if n == nil || n.root == nil || n.spent {
		return nil, setupError("remount root private", "/", ErrOutOfOrder)
	}
	if err := n.root.live(); err != nil {
		return nil, privilegeError("remount root private", err)
	}
	n.spent = true
	if err := n.root.id.system.MakeRPrivate("/"); err != nil {
		return nil, setupError("remount of root failed", "/", err)
	}
	return &PrivateNamespace{root: n.root, target: n.target}, nil
}

// Target returns the container root being assembled.
func (p *PrivateNamespace) Target() string { return p.target }

func (p *PrivateNamespace) live() error {
	if p == nil || p.root == nil || p.spent {
		return ErrOutOfOrder
	}
	return p.root.live()
}

// Bind recursively bind-mounts mount.Source onto its mountpoint beneath
// the container root. A mount nested under an earlier one covers it.
func (p *PrivateNamespace) Bind(mount VolumeMount) error {
	if err := p.live(); err != nil {
		return setupError("failed to mount", mount.Source, err)
	}
	if mount.Relative == "" || filepath.IsAbs(mount.Relative) || hasDotDot(mount.Relative) ||
		mount.Mountpoint != filepath.Join(p.target, mount.Relative) {
		return setupError("failed to mount", mount.Source,
			fmt.Errorf("mountpoint %s is not beneath %s", mount.Mountpoint, p.target))
	}
	if err := p.root.id.system.BindMount(mount.Source, p.target, mount.Relative); err != nil {
		return setupError("failed to mount", mount.Source, fmt.Errorf("on %s: %w", mount.Mountpoint, err))
	}
	return nil
}
