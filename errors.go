// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package sharedstorage

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions callers typically check with errors.Is.
var (
	// ErrUnexpectedFileData is returned when a FileData event arrives without
	// a preceding File announcement.
	ErrUnexpectedFileData = errors.New("sharedstorage: unexpected file data event")

	// ErrUnexpectedEndOfContent is returned when the producer stream ends
	// while a File announcement is still awaiting its FileData.
	ErrUnexpectedEndOfContent = errors.New("sharedstorage: unexpected end of content")

	// ErrExpectedFileDataEvent is returned when the event following a File
	// announcement is anything other than FileData.
	ErrExpectedFileDataEvent = errors.New("sharedstorage: expected file data event")

	// ErrImportStreamError is returned when the producer emits an Error event.
	ErrImportStreamError = errors.New("sharedstorage: import stream reported an error")
)

// PathError reports a traversal or path-shape failure against a Directory,
// identified by the offending path or component.
type PathError struct {
	// Kind names which of the traversal failures occurred.
	Kind string
	// Path is the offending path or component, rendered for diagnostics.
	Path string
}

func (e *PathError) Error() string {
	switch e.Kind {
	case "EntryNotFound":
		return fmt.Sprintf("entry %q not found in storage index", e.Path)
	case "EntryNotDirectory":
		return fmt.Sprintf("entry %q was not a directory when traversing storage index", e.Path)
	case "UnexpectedPrefix":
		return fmt.Sprintf("unexpected volume-prefix component encountered traversing %q", e.Path)
	case "UnexpectedParent":
		return fmt.Sprintf("unexpected parent-directory component encountered traversing %q", e.Path)
	case "UnexpectedRootDir":
		return fmt.Sprintf("unexpected root-directory component encountered traversing %q", e.Path)
	default:
		return fmt.Sprintf("path error (%s): %q", e.Kind, e.Path)
	}
}

// EntryConflictError reports an invariant I3/I5 violation: an attempt to
// overwrite a directory entry with a file, a file entry with a directory, or
// a file entry with a different identifier under the same name.
type EntryConflictError struct {
	Kind string // "FileEntryExistsAsDirectory" | "FileEntryExistsAsFile" | "DirectoryEntryExistsAsFile"
	Name string
}

func (e *EntryConflictError) Error() string {
	switch e.Kind {
	case "FileEntryExistsAsDirectory":
		return fmt.Sprintf("entry %q exists as a directory, cannot insert as file", e.Name)
	case "FileEntryExistsAsFile":
		return fmt.Sprintf("entry %q exists as a different file", e.Name)
	case "DirectoryEntryExistsAsFile":
		return fmt.Sprintf("entry %q exists as a file, cannot make directory", e.Name)
	default:
		return fmt.Sprintf("entry conflict (%s): %q", e.Kind, e.Name)
	}
}

// IndexError reports a failure preparing, loading, parsing, serializing, or
// writing an index manifest.
type IndexError struct {
	Kind string // "Preparing" | "IndexTooLarge" | "ParsingIndex" | "SerialisingIndex" | "WritingIndex"
	Name string
	Size uint64
	Err  error
}

func (e *IndexError) Error() string {
	switch e.Kind {
	case "Preparing":
		return fmt.Sprintf("preparing storage root: %v", e.Err)
	case "IndexTooLarge":
		return fmt.Sprintf("index %q too large (%d bytes)", e.Name, e.Size)
	case "ParsingIndex":
		return fmt.Sprintf("parsing index %q: %v", e.Name, e.Err)
	case "SerialisingIndex":
		return fmt.Sprintf("serialising index %q: %v", e.Name, e.Err)
	case "WritingIndex":
		return fmt.Sprintf("writing index %q: %v", e.Name, e.Err)
	default:
		return fmt.Sprintf("index error (%s) %q: %v", e.Kind, e.Name, e.Err)
	}
}

func (e *IndexError) Unwrap() error { return e.Err }

// ImportError reports a failure specific to an in-progress import that isn't
// better described by a PathError, EntryConflictError, or IndexError.
type ImportError struct {
	Kind string // "ImpossibleFileClaim" | "IOErrorAddingToStorage" | "JoinError"
	Path string
	Size uint64
	Err  error
}

func (e *ImportError) Error() string {
	switch e.Kind {
	case "ImpossibleFileClaim":
		return fmt.Sprintf("file %q (%d bytes) can never be admitted by the resource provider", e.Path, e.Size)
	case "IOErrorAddingToStorage":
		return fmt.Sprintf("I/O error adding %q to storage: %v", e.Path, e.Err)
	case "JoinError":
		return fmt.Sprintf("spawned task for %q failed: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("import error (%s) %q: %v", e.Kind, e.Path, e.Err)
	}
}

func (e *ImportError) Unwrap() error { return e.Err }
