// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package sharedstorage

// ImportEvent is the sum type a producer emits to drive Engine.Import. It is
// a discriminated union, not an inheritance hierarchy: exactly one of the
// constructors below is used to build each value, and the engine dispatches
// on Kind with an exhaustive switch.
type ImportEvent struct {
	Kind EventKind

	// DirPath is populated for EventDirectory: the relative path of the
	// subdirectory to create.
	DirPath string

	// ParentPath, Name, Size, Executable are populated for EventFile.
	// ParentPath is optional; an empty string means the root directory.
	ParentPath string
	Name       string
	Size       uint64
	Executable bool

	// Data is populated for EventFileData: the payload of the most recent
	// File announcement.
	Data []byte

	// Err is populated for EventError: the stream-level failure that
	// aborts the import.
	Err error
}

// EventKind discriminates the ImportEvent sum type.
type EventKind int

const (
	EventDirectory EventKind = iota
	EventFile
	EventFileData
	EventError
)

// DirectoryEvent constructs a Directory(relative_path) event.
func DirectoryEvent(relativePath string) ImportEvent {
	return ImportEvent{Kind: EventDirectory, DirPath: relativePath}
}

// FileEvent constructs a File(parent_path?, name, size, executable) event.
// It must be immediately followed by exactly one FileDataEvent.
func FileEvent(parentPath, name string, size uint64, executable bool) ImportEvent {
	return ImportEvent{Kind: EventFile, ParentPath: parentPath, Name: name, Size: size, Executable: executable}
}

// FileDataEvent constructs the payload event for the most recently announced
// File.
func FileDataEvent(data []byte) ImportEvent {
	return ImportEvent{Kind: EventFileData, Data: data}
}

// ErrorEvent constructs a stream-level failure event that aborts the import.
func ErrorEvent(err error) ImportEvent {
	return ImportEvent{Kind: EventError, Err: err}
}

// Producer is the capability contract for an asynchronous, pull-based
// ImportEvent source. Next returns io.EOF (wrapped via errors.Is) when the
// stream is exhausted with no further events; any other error is treated as
// a producer-side failure distinct from an explicit EventError value.
//
// Producers are out of scope for the core per the package documentation;
// this interface exists so Engine.Import can be driven by any source,
// including the reference producers in the testsupport package.
type Producer interface {
	Next() (ImportEvent, error)
}
