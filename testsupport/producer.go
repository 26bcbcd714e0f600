// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package testsupport provides reference ImportEvent producers and a
// fixture replay format. None of it is part of the core: spec.md treats
// event production as an opaque collaborator, so this package exists
// purely to make the core testable and demonstrable (unit tests, the
// integration scenario, and cmd/storedemo all use it as their event
// source).
package testsupport

import (
	"io"

	sharedstorage "github.com/strongdm/shared-storage"
)

// Node is a literal description of one entry in an in-memory directory tree,
// used to build small fixture trees for unit tests without touching a real
// filesystem.
type Node struct {
	Name       string
	IsDir      bool
	Data       []byte
	Executable bool
	Children   []Node
}

// Dir constructs a directory Node with the given children.
func Dir(name string, children ...Node) Node {
	return Node{Name: name, IsDir: true, Children: children}
}

// File constructs a file Node carrying its payload directly.
func File(name string, data []byte, executable bool) Node {
	return Node{Name: name, Data: data, Executable: executable}
}

// eventSliceProducer replays a fixed, pre-built slice of events; it backs
// both NewMemProducer and the fixture-file producer in fixture.go.
type eventSliceProducer struct {
	events []sharedstorage.ImportEvent
	pos    int
}

func (p *eventSliceProducer) Next() (sharedstorage.ImportEvent, error) {
	if p.pos >= len(p.events) {
		return sharedstorage.ImportEvent{}, io.EOF
	}
	e := p.events[p.pos]
	p.pos++
	return e, nil
}

// NewMemProducer flattens a literal tree of Nodes into the Directory/File/
// FileData event sequence Engine.Import expects.
func NewMemProducer(roots ...Node) sharedstorage.Producer {
	var events []sharedstorage.ImportEvent
	appendNodes("", roots, &events)
	return &eventSliceProducer{events: events}
}

func appendNodes(parent string, nodes []Node, events *[]sharedstorage.ImportEvent) {
	for _, n := range nodes {
		relPath := n.Name
		if parent != "" {
			relPath = parent + "/" + n.Name
		}
		if n.IsDir {
			*events = append(*events, sharedstorage.DirectoryEvent(relPath))
			appendNodes(relPath, n.Children, events)
			continue
		}
		*events = append(*events,
			sharedstorage.FileEvent(parent, n.Name, uint64(len(n.Data)), n.Executable),
			sharedstorage.FileDataEvent(n.Data),
		)
	}
}
