// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package sharedstorage

import (
	"errors"
	"os"
	"path/filepath"
)

// persistBlob ensures id's bytes exist on disk under base, per spec.md's
// blob-persistence procedure: if the target already exists, identical bytes
// are assumed (content-addressing guarantees this) and nothing is written.
// Otherwise the parent shard directories are created, the payload is
// written to a create-exclusive temp file, flushed, closed, and renamed
// into place. A concurrent importer racing on the same new blob produces
// one winner and one AlreadyExists error here, surfaced as
// IOErrorAddingToStorage.
func persistBlob(base string, id Identifier, data []byte) error {
	target := id.Path(base)
	if _, err := os.Stat(target); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return &ImportError{Kind: "IOErrorAddingToStorage", Path: target, Size: id.Size, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return &ImportError{Kind: "IOErrorAddingToStorage", Path: target, Size: id.Size, Err: err}
	}

	tmp := target + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return &ImportError{Kind: "IOErrorAddingToStorage", Path: target, Size: id.Size, Err: err}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return &ImportError{Kind: "IOErrorAddingToStorage", Path: target, Size: id.Size, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return &ImportError{Kind: "IOErrorAddingToStorage", Path: target, Size: id.Size, Err: err}
	}

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return &ImportError{Kind: "IOErrorAddingToStorage", Path: target, Size: id.Size, Err: err}
	}
	return nil
}
