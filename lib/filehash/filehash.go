// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filehash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Digest is a BLAKE3-256 digest.
type Digest [32]byte

// String returns the hex encoding of the digest.
func (d Digest) String() string {
	return FormatDigest(d)
}

// HashBytes returns the digest of data.
func HashBytes(data []byte) Digest {
	return Digest(blake3.Sum256(data))
}

// HashFile computes the digest of the file at path. The file is
// streamed through the hasher so memory use does not depend on its
// size.
func HashFile(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// FormatDigest returns the hex-encoded string representation of a
// digest.
func FormatDigest(digest Digest) string {
	return hex.EncodeToString(digest[:])
}
