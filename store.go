// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package sharedstorage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/muhammadmuzzammil1998/jsonc"
)

const (
	dataDir    = "data"
	indicesDir = "indices"

	// maxIndexBytes is the hard ceiling on a serialized index manifest,
	// checked both at load and at commit.
	maxIndexBytes = 1 << 20 // 1 MiB
)

// namedIndex is the in-memory bookkeeping record for one committed index:
// its tree plus a dirty bit. Only a dirty index is rewritten to disk.
type namedIndex struct {
	tree  *Directory
	dirty bool
}

// Store maintains the on-disk layout of a shared-storage root: blob data
// under dataDir and named tree manifests under indicesDir. It corresponds to
// spec.md's Index Store component (module C).
type Store struct {
	base string

	mu      sync.Mutex
	indices map[string]*namedIndex

	log *slog.Logger
}

// Open prepares base (creating dataDir/indicesDir if absent) and loads every
// existing index manifest, exactly as load_indices specifies: files over the
// 1 MiB ceiling are a fatal IndexTooLarge error, non-regular directory
// entries are noted in the log but not acted upon.
func Open(base string) (*Store, error) {
	s := &Store{
		base:    base,
		indices: make(map[string]*namedIndex),
		log:     slog.Default(),
	}
	if err := s.prepare(); err != nil {
		return nil, err
	}
	if err := s.loadIndices(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) prepare() error {
	for _, dir := range []string{s.dataPath(), s.indicesPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &IndexError{Kind: "Preparing", Err: err}
		}
	}
	return nil
}

func (s *Store) dataPath() string    { return filepath.Join(s.base, dataDir) }
func (s *Store) indicesPath() string { return filepath.Join(s.base, indicesDir) }

func (s *Store) indexPath(name string) string {
	return filepath.Join(s.indicesPath(), name)
}

func (s *Store) loadIndices() error {
	entries, err := os.ReadDir(s.indicesPath())
	if err != nil {
		return &IndexError{Kind: "Preparing", Err: err}
	}
	for _, entry := range entries {
		name := entry.Name()
		if filepath.Ext(name) == ".tmp" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return &IndexError{Kind: "Preparing", Name: name, Err: err}
		}
		if !info.Mode().IsRegular() {
			s.log.Warn("[sharedstorage] non-regular entry in indices directory, ignoring",
				"name", name, "mode", info.Mode().String())
			continue
		}
		if info.Size() > maxIndexBytes {
			return &IndexError{Kind: "IndexTooLarge", Name: name, Size: uint64(info.Size())}
		}
		data, err := os.ReadFile(s.indexPath(name))
		if err != nil {
			return &IndexError{Kind: "Preparing", Name: name, Err: err}
		}
		tree, err := ParseDirectory(data)
		if err != nil {
			return &IndexError{Kind: "ParsingIndex", Name: name, Err: err}
		}
		s.indices[name] = &namedIndex{tree: tree, dirty: false}
	}
	s.log.Info("[sharedstorage] loaded indices", "count", len(s.indices), "base", s.base)
	return nil
}

// Indices returns the sorted names of every currently-registered index.
func (s *Store) Indices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.indices))
	for name := range s.indices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tree returns the current tree registered under name, or nil if unknown.
func (s *Store) Tree(name string) *Directory {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indices[name]
	if !ok {
		return nil
	}
	return idx.tree
}

// ReadBlob returns the stored bytes for id.
func (s *Store) ReadBlob(id Identifier) ([]byte, error) {
	return os.ReadFile(id.Path(s.base))
}

// register installs tree as the new contents of name, marked dirty, and
// commits it via SaveIndex. On commit failure the registration is removed
// and the already-written data blobs are intentionally left on disk, per
// spec.md's commit-failure handling.
func (s *Store) register(name string, tree *Directory) error {
	s.mu.Lock()
	s.indices[name] = &namedIndex{tree: tree, dirty: true}
	s.mu.Unlock()

	if err := s.SaveIndex(name); err != nil {
		s.mu.Lock()
		delete(s.indices, name)
		s.mu.Unlock()
		return err
	}
	return nil
}

// SaveIndex commits the named index to disk if and only if it is dirty:
// serialize, verify the 1 MiB ceiling, write to a sibling "<name>.tmp" file
// opened create-exclusive, flush, close, then atomically rename onto
// "<name>". On rename failure the temp file is best-effort removed and the
// error surfaces as a WritingIndex IndexError.
func (s *Store) SaveIndex(name string) error {
	s.mu.Lock()
	idx, ok := s.indices[name]
	if !ok {
		s.mu.Unlock()
		return &IndexError{Kind: "Preparing", Name: name, Err: fmt.Errorf("no such index %q", name)}
	}
	if !idx.dirty {
		s.mu.Unlock()
		return nil
	}
	tree := idx.tree
	s.mu.Unlock()

	data, err := json.Marshal(tree)
	if err != nil {
		return &IndexError{Kind: "SerialisingIndex", Name: name, Err: err}
	}
	if len(data) > maxIndexBytes {
		return &IndexError{Kind: "IndexTooLarge", Name: name, Size: uint64(len(data))}
	}

	tmpPath := s.indexPath(name) + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return &IndexError{Kind: "WritingIndex", Name: name, Err: err}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return &IndexError{Kind: "WritingIndex", Name: name, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return &IndexError{Kind: "WritingIndex", Name: name, Err: err}
	}

	if err := os.Rename(tmpPath, s.indexPath(name)); err != nil {
		os.Remove(tmpPath)
		return &IndexError{Kind: "WritingIndex", Name: name, Err: err}
	}

	s.mu.Lock()
	idx.dirty = false
	s.mu.Unlock()

	s.log.Info("[sharedstorage] committed index", "name", name, "bytes", humanize.Bytes(uint64(len(data))))
	return nil
}

// ParseDirectory decodes an index manifest using the liberal input dialect:
// "//" and "/* */" comments and trailing commas are stripped before strict
// decoding, so hand-edited or legacy manifests still load.
func ParseDirectory(data []byte) (*Directory, error) {
	relaxed := stripTrailingCommas(jsonc.ToJSON(data))
	var dir Directory
	if err := json.Unmarshal(relaxed, &dir); err != nil {
		return nil, err
	}
	return &dir, nil
}

// stripTrailingCommas removes commas that appear (ignoring whitespace)
// immediately before a closing '}' or ']', outside of string literals. This
// complements jsonc.ToJSON, which strips comments but not trailing commas.
func stripTrailingCommas(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	escaped := false
	for i := 0; i < len(data); i++ {
		b := data[i]
		out = append(out, b)
		if inString {
			if escaped {
				escaped = false
			} else if b == '\\' {
				escaped = true
			} else if b == '"' {
				inString = false
			}
			continue
		}
		if b == '"' {
			inString = true
			continue
		}
		if b != ',' {
			continue
		}
		j := i + 1
		for j < len(data) && isJSONSpace(data[j]) {
			j++
		}
		if j < len(data) && (data[j] == '}' || data[j] == ']') {
			out = out[:len(out)-1] // drop the comma just appended
		}
	}
	return out
}

func isJSONSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
