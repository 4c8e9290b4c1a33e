// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"io/fs"
	"os"
	"slices"
	"strings"
	"syscall"
	"testing"

	"github.com/bureau-foundation/distrorun/lib/filehash"
	"github.com/bureau-foundation/distrorun/lib/testutil"
)

const buildYAML = `
dir: /srv/containers/build
mapped_volumes:
  - /usr
  - /srv/shared/cache
`

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	directory := t.TempDir()
	testutil.WriteFile(t, directory, "build.yaml", buildYAML, 0o644)

	container, err := Loader{Directory: directory}.Load("build")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if container.Name != "build" {
		t.Errorf("expected name=build, got %s", container.Name)
	}
	if container.Dir != "/srv/containers/build" {
		t.Errorf("expected dir=/srv/containers/build, got %s", container.Dir)
	}
	want := []string{"/usr", "/srv/shared/cache"}
	if !slices.Equal(container.MappedVolumes, want) {
		t.Errorf("expected mapped_volumes=%v, got %v", want, container.MappedVolumes)
	}
	if container.Digest != filehash.HashBytes([]byte(buildYAML)) {
		t.Errorf("digest %s does not match file contents", container.Digest)
	}
}

func TestLoadJSONC(t *testing.T) {
	t.Parallel()

	directory := t.TempDir()
	testutil.WriteFile(t, directory, "build.jsonc", `{
  // Root of the build container.
  "dir": "/srv/containers/build",
  "mapped_volumes": [
    "/usr",
    "/srv/shared/cache", // trailing comma
  ],
}
`, 0o644)

	container, err := Loader{Directory: directory}.Load("build")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if container.Dir != "/srv/containers/build" {
		t.Errorf("expected dir=/srv/containers/build, got %s", container.Dir)
	}
	if !slices.Equal(container.MappedVolumes, []string{"/usr", "/srv/shared/cache"}) {
		t.Errorf("unexpected mapped_volumes %v", container.MappedVolumes)
	}
	if !strings.HasSuffix(container.Path, "build.jsonc") {
		t.Errorf("expected path to end in build.jsonc, got %s", container.Path)
	}
}

func TestLoadWithoutVolumes(t *testing.T) {
	t.Parallel()

	directory := t.TempDir()
	testutil.WriteFile(t, directory, "bare.yaml", "dir: /srv/containers/bare\n", 0o644)

	container, err := Loader{Directory: directory}.Load("bare")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(container.MappedVolumes) != 0 {
		t.Errorf("expected no mapped volumes, got %v", container.MappedVolumes)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		files   map[string]string
		load    string
		wantErr string
	}{
		{
			name:    "missing",
			load:    "build",
			wantErr: "no configuration",
		},
		{
			name:    "both formats",
			files:   map[string]string{"build.yaml": buildYAML, "build.jsonc": `{"dir": "/srv"}`},
			load:    "build",
			wantErr: "both",
		},
		{
			name:    "unknown yaml key",
			files:   map[string]string{"build.yaml": "dir: /srv\nmaped_volumes: [/usr]\n"},
			load:    "build",
			wantErr: "maped_volumes",
		},
		{
			name:    "unknown jsonc key",
			files:   map[string]string{"build.jsonc": `{"dir": "/srv", "volumes": ["/usr"]}`},
			load:    "build",
			wantErr: "volumes",
		},
		{
			name:    "empty file",
			files:   map[string]string{"build.yaml": ""},
			load:    "build",
			wantErr: "empty",
		},
		{
			name:    "missing dir",
			files:   map[string]string{"build.yaml": "mapped_volumes: [/usr]\n"},
			load:    "build",
			wantErr: "dir is required",
		},
		{
			name:    "relative dir",
			files:   map[string]string{"build.yaml": "dir: srv/build\n"},
			load:    "build",
			wantErr: "absolute",
		},
		{
			name:    "relative volume",
			files:   map[string]string{"build.yaml": "dir: /srv\nmapped_volumes: [usr]\n"},
			load:    "build",
			wantErr: "relative path",
		},
		{
			name:    "slash volume",
			files:   map[string]string{"build.yaml": "dir: /srv\nmapped_volumes: [/]\n"},
			load:    "build",
			wantErr: "cover the container root",
		},
		{
			name:    "name with slash",
			files:   map[string]string{"build.yaml": buildYAML},
			load:    "../build",
			wantErr: "'/'",
		},
		{
			name:    "empty name",
			load:    "",
			wantErr: "must not be empty",
		},
		{
			name:    "dot dot",
			load:    "..",
			wantErr: `container name ".." is not a valid name`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			directory := t.TempDir()
			for name, content := range test.files {
				testutil.WriteFile(t, directory, name, content, 0o644)
			}
			_, err := Loader{Directory: directory}.Load(test.load)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("expected error containing %q, got %q", test.wantErr, err.Error())
			}
		})
	}
}

func TestLoadMissingIsNotExist(t *testing.T) {
	t.Parallel()
	_, err := Loader{Directory: t.TempDir()}.Load("build")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist in chain, got %v", err)
	}
}

func TestLoadRejectsDirectory(t *testing.T) {
	t.Parallel()
	directory := t.TempDir()
	testutil.MakeDirectories(t, directory, "build.yaml")
	if _, err := (Loader{Directory: directory}).Load("build"); err == nil {
		t.Fatal("expected error for a directory named like a configuration file")
	}
}

func TestLoadFIFODoesNotBlock(t *testing.T) {
	t.Parallel()
	directory := t.TempDir()
	if err := syscall.Mkfifo(directory+"/build.yaml", 0o644); err != nil {
		t.Skipf("mkfifo: %v", err)
	}
	_, err := Loader{Directory: directory}.Load("build")
	if err == nil || !strings.Contains(err.Error(), "not a regular file") {
		t.Errorf("expected not-a-regular-file error, got %v", err)
	}
}

func TestRequireRootOwned(t *testing.T) {
	t.Parallel()

	t.Run("file owned by caller", func(t *testing.T) {
		t.Parallel()
		testutil.RequireUnprivileged(t)
		directory := t.TempDir()
		testutil.WriteFile(t, directory, "build.yaml", buildYAML, 0o644)
		_, err := Loader{Directory: directory, RequireRootOwned: true}.Load("build")
		if err == nil || !strings.Contains(err.Error(), "want root") {
			t.Errorf("expected ownership error, got %v", err)
		}
	})

	t.Run("group writable", func(t *testing.T) {
		t.Parallel()
		testutil.RequireRoot(t)
		directory := t.TempDir()
		path := testutil.WriteFile(t, directory, "build.yaml", buildYAML, 0o644)
		if err := os.Chmod(path, 0o664); err != nil {
			t.Fatal(err)
		}
		_, err := Loader{Directory: directory, RequireRootOwned: true}.Load("build")
		if err == nil || !strings.Contains(err.Error(), "writable") {
			t.Errorf("expected writability error, got %v", err)
		}
	})

	t.Run("root owned", func(t *testing.T) {
		t.Parallel()
		testutil.RequireRoot(t)
		directory := t.TempDir()
		testutil.WriteFile(t, directory, "build.yaml", buildYAML, 0o644)
		if _, err := (Loader{Directory: directory, RequireRootOwned: true}).Load("build"); err != nil {
			t.Errorf("Load() failed: %v", err)
		}
	})
}

func TestContainerValidateJoinsErrors(t *testing.T) {
	t.Parallel()
	container := &Container{Dir: "relative", MappedVolumes: []string{"a", ""}}
	err := container.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, fragment := range []string{"absolute", "mapped_volumes[0]", "mapped_volumes[1] is empty"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("error %q missing %q", err.Error(), fragment)
		}
	}
}
