// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/distrorun/lib/filehash"
)

// SelfDigest returns the hex BLAKE3 digest and absolute path of the
// running binary. On Linux os.Executable reads /proc/self/exe, which
// names the binary the process was started from even if it has since
// been replaced on disk.
func SelfDigest() (digest string, binaryPath string, err error) {
	executable, err := os.Executable()
	if err != nil {
		return "", "", fmt.Errorf("resolving own executable path: %w", err)
	}
	sum, err := filehash.HashFile(executable)
	if err != nil {
		return "", "", fmt.Errorf("hashing own binary at %s: %w", executable, err)
	}
	return filehash.FormatDigest(sum), executable, nil
}
