// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package sharedstorage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
)

// Identifier names a blob by the SHA-256 digest of its bytes, its length,
// and whether it is executable. Two identifiers are equal iff all three
// fields match; the mapping from bytes to Identifier is deterministic.
type Identifier struct {
	Hash       string `json:"hash"`
	Size       uint64 `json:"size"`
	Executable bool   `json:"executable"`
}

// Compute derives the Identifier for a payload. Hashing is CPU-bound; callers
// running this from the import engine are responsible for issuing it from a
// spawned goroutine so it never blocks the event-processing loop.
func Compute(data []byte, executable bool) Identifier {
	sum := sha256.Sum256(data)
	return Identifier{
		Hash:       hex.EncodeToString(sum[:]),
		Size:       uint64(len(data)),
		Executable: executable,
	}
}

// Path returns the deterministic on-disk location of this blob under base,
// per the sharded two-level layout: BASE/data/h[0:2]/h[2:4]/h[4:]-n[x].
func (id Identifier) Path(base string) string {
	h := id.Hash
	name := fmt.Sprintf("%s-%d", h[4:], id.Size)
	if id.Executable {
		name += "x"
	}
	return filepath.Join(base, dataDir, h[0:2], h[2:4], name)
}

func (id Identifier) String() string {
	suffix := ""
	if id.Executable {
		suffix = " executable"
	}
	return fmt.Sprintf("%s (%d bytes%s)", id.Hash, id.Size, suffix)
}
