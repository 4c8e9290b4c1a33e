// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package distro

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bureau-foundation/distrorun/lib/config"
)

// RequestConfig holds the inputs for a [Request]. The CLI builds it
// from its flags and the container's configuration file.
type RequestConfig struct {
	// Name is the container name. It selects the configuration file,
	// so it may not contain a path separator.
	Name string

	// Root is the container's root directory. Must be absolute.
	Root string

	// Volumes are administrator-configured host directories mounted at
	// the same path inside the root. Each must be absolute.
	Volumes []string

	// ExtraVolumes are user-supplied host directories. Relative paths
	// are resolved against WorkDir. They are validated as the invoking
	// user before anything is mounted.
	ExtraVolumes []string

	// WorkDir is the caller's working directory. Must be absolute.
	WorkDir string

	// Argv is the command and its arguments. Must not be empty.
	Argv []string

	// Env is the environment handed to the command.
	Env []string
}

// Request is a fully validated launch request. It cannot be modified
// after construction; accessors return copies.
type Request struct {
	name         string
	root         string
	volumes      []string
	extraVolumes []string
	workDir      string
	argv         []string
	env          []string
}

// ValidateName checks a container name with the configuration loader's
// rule, reporting a failure as a usage error. Names select a
// configuration file, so a separator would let a user point the lookup
// at an arbitrary file.
func ValidateName(name string) error {
	if err := config.ValidateName(name); err != nil {
		return usageError("container name", name, err)
	}
	return nil
}

// NewRequest validates config and returns an immutable Request.
func NewRequest(config RequestConfig) (*Request, error) {
	if err := ValidateName(config.Name); err != nil {
		return nil, err
	}
	if !filepath.IsAbs(config.Root) {
		return nil, &Error{Kind: KindConfig, Op: "container root", Path: config.Root, Err: errors.New("must be an absolute path")}
	}
	for _, volume := range config.Volumes {
		if !filepath.IsAbs(volume) {
			return nil, &Error{Kind: KindConfig, Op: "mapped volume", Path: volume, Err: errors.New("is a relative path")}
		}
	}
	if !filepath.IsAbs(config.WorkDir) {
		return nil, usageError("working directory", config.WorkDir, errors.New("must be an absolute path"))
	}
	if len(config.Argv) == 0 || config.Argv[0] == "" {
		return nil, usageError("command", "", errors.New("is required"))
	}

	extraVolumes := make([]string, 0, len(config.ExtraVolumes))
	for _, volume := range config.ExtraVolumes {
		if volume == "" {
			return nil, usageError("extra volume", "", errors.New("must not be empty"))
		}
		if !filepath.IsAbs(volume) {
			volume = filepath.Join(config.WorkDir, volume)
		}
		extraVolumes = append(extraVolumes, volume)
	}

	return &Request{
		name:         config.Name,
		root:         filepath.Clean(config.Root),
		volumes:      slices.Clone(config.Volumes),
		extraVolumes: extraVolumes,
		workDir:      filepath.Clean(config.WorkDir),
		argv:         slices.Clone(config.Argv),
		env:          slices.Clone(config.Env),
	}, nil
}

// Name returns the container name.
func (r *Request) Name() string { return r.name }

// Root returns the container's root directory.
func (r *Request) Root() string { return r.root }

// Volumes returns the configured volumes.
func (r *Request) Volumes() []string { return slices.Clone(r.volumes) }

// ExtraVolumes returns the user-supplied volumes as absolute paths.
func (r *Request) ExtraVolumes() []string { return slices.Clone(r.extraVolumes) }

// WorkDir returns the caller's working directory on the host.
func (r *Request) WorkDir() string { return r.workDir }

// Argv returns the command and its arguments.
func (r *Request) Argv() []string { return slices.Clone(r.argv) }

// Env returns the command environment.
func (r *Request) Env() []string { return slices.Clone(r.env) }

// VolumeMount is one bind-mount of the container: Source on the host is
// mounted at Mountpoint, which always lies beneath the container root.
type VolumeMount struct {
	Source string

	// Relative is Mountpoint relative to the container root. It never
	// contains a ".." component.
	Relative string

	Mountpoint string
}

// NewVolumeMount re-anchors volume under root: the volume's path
// relative to "/" is joined onto root.
func NewVolumeMount(root, volume string) (VolumeMount, error) {
	if !filepath.IsAbs(volume) {
		return VolumeMount{}, errors.New("is not an absolute path")
	}
	// Clean resolves ".." lexically against "/", so the relative part
	// cannot climb out of the root.
	relative := strings.TrimPrefix(filepath.Clean(volume), "/")
	if relative == "" {
		return VolumeMount{}, errors.New("would cover the container root")
	}
	if hasDotDot(relative) {
		return VolumeMount{}, errors.New("escapes the container root")
	}
	return VolumeMount{
		Source:     volume,
		Relative:   relative,
		Mountpoint: filepath.Join(root, relative),
	}, nil
}

// Mounts returns the bind-mounts of the request in the order they are
// performed: configured volumes first, then extra volumes.
func (r *Request) Mounts() ([]VolumeMount, error) {
	mounts := make([]VolumeMount, 0, len(r.volumes)+len(r.extraVolumes))
	for _, volume := range r.volumes {
		mount, err := NewVolumeMount(r.root, volume)
		if err != nil {
			return nil, &Error{Kind: KindConfig, Op: "mapped volume", Path: volume, Err: err}
		}
		mounts = append(mounts, mount)
	}
	for _, volume := range r.extraVolumes {
		mount, err := NewVolumeMount(r.root, volume)
		if err != nil {
			return nil, usageError("extra volume", volume, err)
		}
		mounts = append(mounts, mount)
	}
	return mounts, nil
}

// hasDotDot reports whether any component of a slash-separated path is
// exactly "..".
func hasDotDot(path string) bool {
	return slices.Contains(strings.Split(path, "/"), "..")
}
