// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package testsupport

import (
	"errors"
	"io"
	"testing"

	sharedstorage "github.com/strongdm/shared-storage"
)

func drain(t *testing.T, p sharedstorage.Producer) []sharedstorage.ImportEvent {
	t.Helper()
	var events []sharedstorage.ImportEvent
	for {
		e, err := p.Next()
		if errors.Is(err, io.EOF) {
			return events
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		events = append(events, e)
	}
}

func TestNewMemProducer_FlattensLiteralTree(t *testing.T) {
	producer := NewMemProducer(
		Dir("bin", File("program", []byte("body"), true)),
		File("README", []byte("hello"), false),
	)
	events := drain(t, producer)

	var gotDir, gotFile bool
	for _, e := range events {
		switch e.Kind {
		case sharedstorage.EventDirectory:
			if e.DirPath == "bin" {
				gotDir = true
			}
		case sharedstorage.EventFile:
			if e.Name == "program" && e.ParentPath == "bin" && e.Executable {
				gotFile = true
			}
		}
	}
	if !gotDir {
		t.Error("expected a Directory event for \"bin\"")
	}
	if !gotFile {
		t.Error("expected a File event for bin/program with the executable bit set")
	}
}
