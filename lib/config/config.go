// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/distrorun/lib/filehash"
)

// DefaultDirectory is the configuration directory of a standard
// installation.
const DefaultDirectory = "/etc/distrorun.d"

// maxFileSize bounds how much of a configuration file is read.
const maxFileSize = 1 << 20

// Container is the administrator-controlled description of one
// container.
type Container struct {
	// Name is the container name the file was selected by.
	Name string `yaml:"-" json:"-"`

	// Dir is the container's root directory. Must be absolute.
	Dir string `yaml:"dir" json:"dir"`

	// MappedVolumes are host directories bind-mounted at the same path
	// inside Dir, in order. Each must be absolute.
	MappedVolumes []string `yaml:"mapped_volumes" json:"mapped_volumes"`

	// Path is the file the configuration was loaded from.
	Path string `yaml:"-" json:"-"`

	// Digest is the BLAKE3 digest of the file contents.
	Digest filehash.Digest `yaml:"-" json:"-"`
}

// Validate checks the configuration for errors.
func (c *Container) Validate() error {
	var errs []error

	if c.Dir == "" {
		errs = append(errs, errors.New("dir is required"))
	} else if !filepath.IsAbs(c.Dir) {
		errs = append(errs, fmt.Errorf("dir %q must be an absolute path", c.Dir))
	}

	for i, volume := range c.MappedVolumes {
		switch {
		case volume == "":
			errs = append(errs, fmt.Errorf("mapped_volumes[%d] is empty", i))
		case !filepath.IsAbs(volume):
			errs = append(errs, fmt.Errorf("mapped_volumes[%d] %q is a relative path", i, volume))
		case filepath.Clean(volume) == "/":
			errs = append(errs, fmt.Errorf("mapped_volumes[%d] would cover the container root", i))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Loader reads container configurations from a single directory.
type Loader struct {
	// Directory holds one file per container. Defaults to
	// [DefaultDirectory].
	Directory string

	// RequireRootOwned refuses files not owned by uid 0 or writable by
	// group or others.
	RequireRootOwned bool
}

// ValidateName checks that name can only select a file directly inside
// the configuration directory. The returned error describes the name
// without repeating it.
func ValidateName(name string) error {
	switch {
	case name == "":
		return errors.New("must not be empty")
	case strings.ContainsRune(name, '/'):
		return errors.New("may not contain the '/' character")
	case name == "." || name == "..":
		return errors.New("is not a valid name")
	}
	return nil
}

// Load reads and validates the configuration for the named container.
// Exactly one of <name>.yaml and <name>.jsonc must exist.
func (l Loader) Load(name string) (*Container, error) {
	if err := ValidateName(name); err != nil {
		return nil, fmt.Errorf("container name %q %w", name, err)
	}

	directory := l.Directory
	if directory == "" {
		directory = DefaultDirectory
	}

	yamlPath := filepath.Join(directory, name+".yaml")
	jsoncPath := filepath.Join(directory, name+".jsonc")
	yamlData, yamlErr := l.readFile(yamlPath)
	jsoncData, jsoncErr := l.readFile(jsoncPath)

	yamlMissing := errors.Is(yamlErr, fs.ErrNotExist)
	jsoncMissing := errors.Is(jsoncErr, fs.ErrNotExist)
	switch {
	case yamlErr != nil && !yamlMissing:
		return nil, yamlErr
	case jsoncErr != nil && !jsoncMissing:
		return nil, jsoncErr
	case yamlMissing && jsoncMissing:
		return nil, fmt.Errorf("no configuration for container %q in %s: %w", name, directory, fs.ErrNotExist)
	case !yamlMissing && !jsoncMissing:
		return nil, fmt.Errorf("container %q is configured by both %s and %s", name, yamlPath, jsoncPath)
	}

	container := &Container{Name: name}
	var data []byte
	if !yamlMissing {
		data = yamlData
		container.Path = yamlPath
		if err := decodeYAML(data, container); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", yamlPath, err)
		}
	} else {
		data = jsoncData
		container.Path = jsoncPath
		if err := decodeJSONC(data, container); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", jsoncPath, err)
		}
	}
	container.Digest = filehash.HashBytes(data)

	if err := container.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", container.Path, err)
	}
	return container, nil
}

// readFile reads path, checking ownership on the opened descriptor so
// the file checked is the file read. O_NONBLOCK keeps a FIFO planted
// under the expected name from blocking the open.
func (l Loader) readFile(path string) ([]byte, error) {
	file, err := os.OpenFile(path, os.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var stat unix.Stat_t
	if err := unix.Fstat(int(file.Fd()), &stat); err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if stat.Mode&unix.S_IFMT != unix.S_IFREG {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}
	if l.RequireRootOwned {
		if stat.Uid != 0 {
			return nil, fmt.Errorf("%s is owned by uid %d, want root", path, stat.Uid)
		}
		if stat.Mode&0o022 != 0 {
			return nil, fmt.Errorf("%s is writable by group or others (mode %04o)", path, stat.Mode&0o7777)
		}
	}

	data, err := io.ReadAll(io.LimitReader(file, maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("%s is larger than %d bytes", path, maxFileSize)
	}
	return data, nil
}

func decodeYAML(data []byte, container *Container) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(container); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("file is empty")
		}
		return err
	}
	return nil
}

func decodeJSONC(data []byte, container *Container) error {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(container); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("file is empty")
		}
		return err
	}
	if decoder.More() {
		return errors.New("unexpected content after configuration object")
	}
	return nil
}
