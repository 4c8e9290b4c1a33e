// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package distro

import (
	"errors"
	"fmt"
)

// identity is the invoking user's real credentials, captured once at
// startup.
type identity struct {
	system System
	uid    int
	gid    int
	egid   int
}

// Root is the capability of running with effective uid 0. It is the
// initial privilege state of a setuid-root process and the only state
// in which mounts may be performed.
type Root struct {
	id    *identity
	spent bool
}

// RealUser is the capability of running with the invoking user's
// effective uid while the saved uid still permits returning to root.
type RealUser struct {
	id    *identity
	spent bool
}

// Dropped is the terminal privilege state: real, effective and saved
// uid all equal the invoking user. There is no transition out of it.
type Dropped struct {
	id *identity
}

// Acquire checks that the process is running setuid-root and returns
// the initial Root capability. A process whose effective uid equals a
// non-zero real uid was not installed setuid and cannot do its job.
func Acquire(system System) (*Root, error) {
	ruid, euid, _ := system.Getresuid()
	if euid != 0 {
		cause := fmt.Errorf("effective uid is %d", euid)
		if euid == ruid {
			cause = errors.New("this program needs to be installed setuid root")
		}
		return nil, &Error{Kind: KindNotPrivileged, Op: "privilege check", Err: cause}
	}
	rgid, egid, _ := system.Getresgid()
	return &Root{id: &identity{system: system, uid: ruid, gid: rgid, egid: egid}}, nil
}

// UID returns the invoking user's real uid.
func (r *Root) UID() int { return r.id.uid }

func (r *Root) live() error {
	if r == nil || r.id == nil || r.spent {
		return ErrStaleToken
	}
	return nil
}

// AsRealUser lowers the effective uid to the real uid. The saved uid
// stays 0, so [RealUser.Restore] can return to root. The receiver is
// consumed.
func (r *Root) AsRealUser() (*RealUser, error) {
	if err := r.live(); err != nil {
		return nil, privilegeError("temporarily drop privileges", err)
	}
	r.spent = true
	if err := r.id.system.Seteuid(r.id.uid); err != nil {
		return nil, privilegeError("temporarily drop privileges", err)
	}
	return &RealUser{id: r.id}, nil
}

// UID returns the invoking user's real uid.
func (u *RealUser) UID() int { return u.id.uid }

func (u *RealUser) live() error {
	if u == nil || u.id == nil || u.spent {
		return ErrStaleToken
	}
	return nil
}

// Restore returns the effective uid to 0 through the saved uid. The
// receiver is consumed.
func (u *RealUser) Restore() (*Root, error) {
	if err := u.live(); err != nil {
		return nil, privilegeError("restore privileges", err)
	}
	u.spent = true
	if err := u.id.system.Seteuid(0); err != nil {
		return nil, privilegeError("restore privileges", err)
	}
	return &Root{id: u.id}, nil
}

// Drop permanently sets the real, effective and saved uid to the
// invoking user. It requires the [Jail] produced by the root
// transition, so it cannot run before the container is assembled.
// The drop is verified by attempting to regain root, which must fail.
// The receiver is consumed.
func (r *Root) Drop(jail *Jail) (*Dropped, error) {
	if err := r.live(); err != nil {
		return nil, privilegeError("drop privileges", err)
	}
	if err := jail.live(); err != nil {
		return nil, privilegeError("drop privileges", err)
	}
	if jail.root != r {
		return nil, privilegeError("drop privileges", errors.New("container was assembled under a different capability"))
	}
	r.spent = true

	id := r.id
	system := id.system
	if id.egid != id.gid {
		if err := system.Setresgid(id.gid, id.gid, id.gid); err != nil {
			return nil, privilegeError("drop group privileges", err)
		}
	}
	if err := system.Setresuid(id.uid, id.uid, id.uid); err != nil {
		return nil, privilegeError("drop privileges", err)
	}

	ruid, euid, suid := system.Getresuid()
	if ruid != id.uid || euid != id.uid || suid != id.uid {
		return nil, privilegeError("drop privileges",
			fmt.Errorf("uids are %d/%d/%d after drop, want %d", ruid, euid, suid, id.uid))
	}
	if id.uid != 0 && system.Seteuid(0) == nil {
		return nil, privilegeError("drop privileges", errors.New("root could be regained after drop"))
	}
	return &Dropped{id: id}, nil
}

// UID returns the uid the process now runs as.
func (d *Dropped) UID() int { return d.id.uid }
