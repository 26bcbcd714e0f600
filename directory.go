// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package sharedstorage

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// rawBytesPrefix escapes directory-entry names that are not valid UTF-8 so
// that the JSON manifest format can still round-trip them bit-for-bit. A NUL
// byte can never occur in a real filesystem path component on any platform
// this package targets, so it is a safe, unambiguous escape marker: any name
// starting with it is base64 beneath the marker, anything else is literal.
const rawBytesPrefix = "\x00b64:"

func encodeName(name string) string {
	if utf8.ValidString(name) && !strings.HasPrefix(name, rawBytesPrefix) {
		return name
	}
	return rawBytesPrefix + base64.StdEncoding.EncodeToString([]byte(name))
}

func decodeName(encoded string) string {
	if rest, ok := strings.CutPrefix(encoded, rawBytesPrefix); ok {
		if raw, err := base64.StdEncoding.DecodeString(rest); err == nil {
			return string(raw)
		}
	}
	return encoded
}

// DirectoryEntry is the sum type stored under each name in a Directory: it is
// either a FileEntry or a SubDirectory, never both. Implementations are
// exhaustively handled with type switches; there is no shared base behavior.
type DirectoryEntry interface {
	directoryEntry()
}

// FileEntry is a DirectoryEntry naming a blob by Identifier.
type FileEntry struct {
	Identifier Identifier
}

func (FileEntry) directoryEntry() {}

// SubDirectory is a DirectoryEntry naming a nested Directory.
type SubDirectory struct {
	Dir *Directory
}

func (SubDirectory) directoryEntry() {}

// Directory is the in-memory recursive structure backing a named index: a
// mapping from path component to either a nested Directory or a file
// Identifier. Ordering of entries within a Directory is not semantically
// significant.
type Directory struct {
	entries map[string]DirectoryEntry
}

// NewDirectory returns an empty Directory.
func NewDirectory() *Directory {
	return &Directory{entries: make(map[string]DirectoryEntry)}
}

// Entries returns the live entry map. Callers must not retain it across
// concurrent mutation; it exists for iteration (store serialization, tests).
func (d *Directory) Entries() map[string]DirectoryEntry {
	return d.entries
}

// IsEmpty reports whether the directory has no entries.
func (d *Directory) IsEmpty() bool {
	return len(d.entries) == 0
}

func (d *Directory) descend(name string) (*Directory, error) {
	e, ok := d.entries[name]
	if !ok {
		return nil, &PathError{Kind: "EntryNotFound", Path: name}
	}
	sub, ok := e.(SubDirectory)
	if !ok {
		return nil, &PathError{Kind: "EntryNotDirectory", Path: name}
	}
	return sub.Dir, nil
}

func (d *Directory) descendMut(name string, create bool) (*Directory, error) {
	e, ok := d.entries[name]
	if !ok {
		if !create {
			return nil, &PathError{Kind: "EntryNotFound", Path: name}
		}
		nd := NewDirectory()
		d.entries[name] = SubDirectory{Dir: nd}
		return nd, nil
	}
	sub, ok := e.(SubDirectory)
	if !ok {
		return nil, &PathError{Kind: "EntryNotDirectory", Path: name}
	}
	return sub.Dir, nil
}

// Traverse walks a sequence of normal path components from the root,
// rejecting absolute-root markers, parent-directory references, and
// platform prefixes; current-directory references are silently skipped.
func (d *Directory) Traverse(path string) (*Directory, error) {
	comps, err := pathComponents(path)
	if err != nil {
		return nil, err
	}
	here := d
	for _, c := range comps {
		here, err = here.descend(c)
		if err != nil {
			return nil, err
		}
	}
	return here, nil
}

// TraverseMut is Traverse's mutable counterpart. When create is true, missing
// directory components are created on the fly; files are never created by
// traversal.
func (d *Directory) TraverseMut(path string, create bool) (*Directory, error) {
	comps, err := pathComponents(path)
	if err != nil {
		return nil, err
	}
	here := d
	for _, c := range comps {
		here, err = here.descendMut(c, create)
		if err != nil {
			return nil, err
		}
	}
	return here, nil
}

// InsertFile inserts or validates a file entry under invariants I3-I5:
// inserting a brand new name always succeeds; re-inserting the same name
// with the same Identifier is idempotent; re-inserting the same name with a
// different Identifier, or over an existing directory entry, is an error.
func (d *Directory) InsertFile(name string, id Identifier) error {
	existing, ok := d.entries[name]
	if !ok {
		d.entries[name] = FileEntry{Identifier: id}
		return nil
	}
	switch e := existing.(type) {
	case SubDirectory:
		return &EntryConflictError{Kind: "FileEntryExistsAsDirectory", Name: name}
	case FileEntry:
		if e.Identifier != id {
			return &EntryConflictError{Kind: "FileEntryExistsAsFile", Name: name}
		}
		return nil
	default:
		return nil
	}
}

// Mkdir creates a directory entry; idempotent if a directory of that name
// already exists, an error (I3) if a file of that name exists.
func (d *Directory) Mkdir(name string) error {
	existing, ok := d.entries[name]
	if !ok {
		d.entries[name] = SubDirectory{Dir: NewDirectory()}
		return nil
	}
	if _, ok := existing.(FileEntry); ok {
		return &EntryConflictError{Kind: "DirectoryEntryExistsAsFile", Name: name}
	}
	return nil
}

// --- JSON manifest encoding ---
//
// The root value is a Directory object with a single field "entries": a
// mapping from component-name to entry. Each entry is either
// {"Directory": <Directory>} or {"File": {"hash","size","executable"}}.

type rawDirectory struct {
	Entries map[string]rawEntry `json:"entries"`
}

type rawEntry struct {
	Directory *rawDirectory `json:"Directory,omitempty"`
	File      *Identifier   `json:"File,omitempty"`
}

func (d *Directory) toRaw() *rawDirectory {
	raw := &rawDirectory{Entries: make(map[string]rawEntry, len(d.entries))}
	for name, entry := range d.entries {
		key := encodeName(name)
		switch e := entry.(type) {
		case FileEntry:
			id := e.Identifier
			raw.Entries[key] = rawEntry{File: &id}
		case SubDirectory:
			raw.Entries[key] = rawEntry{Directory: e.Dir.toRaw()}
		}
	}
	return raw
}

func fromRaw(raw *rawDirectory) (*Directory, error) {
	d := NewDirectory()
	for key, entry := range raw.Entries {
		name := decodeName(key)
		switch {
		case entry.File != nil:
			d.entries[name] = FileEntry{Identifier: *entry.File}
		case entry.Directory != nil:
			sub, err := fromRaw(entry.Directory)
			if err != nil {
				return nil, err
			}
			d.entries[name] = SubDirectory{Dir: sub}
		default:
			// Neither variant populated: treat as an empty subdirectory
			// rather than erroring, so manifests written by lenient peers
			// still load.
			d.entries[name] = SubDirectory{Dir: NewDirectory()}
		}
	}
	return d, nil
}

// MarshalJSON encodes the directory in canonical, sorted-key form so that
// repeated commits of an unchanged tree produce byte-identical manifests.
func (d *Directory) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.toRaw())
}

// UnmarshalJSON decodes strict JSON produced by MarshalJSON (or any
// conforming encoder). Callers loading untrusted or hand-edited manifests
// should use ParseDirectory instead, which tolerates the liberal input
// dialect described in the package documentation.
func (d *Directory) UnmarshalJSON(data []byte) error {
	var raw rawDirectory
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := fromRaw(&raw)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

// pathComponents splits a producer-supplied relative path into normal
// components, rejecting absolute roots, parent-directory references, and
// platform prefixes (e.g. a Windows drive letter); "." components are
// silently skipped.
func pathComponents(path string) ([]string, error) {
	if path == "" || path == "." {
		return nil, nil
	}
	if strings.HasPrefix(path, "/") {
		return nil, &PathError{Kind: "UnexpectedRootDir", Path: path}
	}
	if len(path) >= 2 && path[1] == ':' {
		return nil, &PathError{Kind: "UnexpectedPrefix", Path: path}
	}
	if strings.HasPrefix(path, `\\`) {
		return nil, &PathError{Kind: "UnexpectedPrefix", Path: path}
	}

	var comps []string
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		switch part {
		case "", ".":
			continue
		case "..":
			return nil, &PathError{Kind: "UnexpectedParent", Path: path}
		default:
			comps = append(comps, part)
		}
	}
	return comps, nil
}
