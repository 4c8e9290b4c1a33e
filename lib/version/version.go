// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags -X at release time, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/distrorun/lib/version.Revision=$(git rev-parse --short HEAD)"
var (
	// Version is the release number.
	Version = "0.1.0-dev"

	// Revision is the source revision. When empty, the revision the Go
	// toolchain stamped into the binary is used instead.
	Revision = ""

	// Modified is "true" when the tree had uncommitted changes.
	Modified = ""
)

// revision returns the source revision and whether the tree was
// modified, preferring injected values over build info.
func revision() (string, bool) {
	if Revision != "" {
		return Revision, Modified == "true"
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown", false
	}
	stamped, modified := "unknown", false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			stamped = setting.Value[:min(len(setting.Value), 12)]
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	return stamped, modified
}

// String returns "<version> (<revision>)", with "-dirty" appended to the
// revision for a modified tree.
func String() string {
	stamped, modified := revision()
	if modified {
		stamped += "-dirty"
	}
	return fmt.Sprintf("%s (%s)", Version, stamped)
}

// Full returns String followed by the Go version, the platform and,
// when it can be computed, the digest of the running binary.
func Full() string {
	full := fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		String(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if digest, _, err := SelfDigest(); err == nil {
		full += "\n  Binary: " + digest
	}
	return full
}
