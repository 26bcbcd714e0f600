// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	sharedstorage "github.com/strongdm/shared-storage"
)

func TestWalkDir_EmitsDirectoryAndFileEvents(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "sub", "f.txt"), []byte("contents"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "skip.bin"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	producer, err := WalkDir(root, WithExclude("skip.bin"))
	if err != nil {
		t.Fatalf("WalkDir: %v", err)
	}

	var sawSub, sawFile, sawSkip bool
	for {
		e, err := producer.Next()
		if err != nil {
			break
		}
		switch {
		case e.Kind == sharedstorage.EventDirectory && e.DirPath == "sub":
			sawSub = true
		case e.Kind == sharedstorage.EventFile && e.Name == "f.txt" && e.ParentPath == "sub":
			sawFile = true
		case e.Kind == sharedstorage.EventFile && e.Name == "skip.bin":
			sawSkip = true
		}
	}

	if !sawSub {
		t.Error("expected a Directory event for \"sub\"")
	}
	if !sawFile {
		t.Error("expected a File event for sub/f.txt")
	}
	if sawSkip {
		t.Error("excluded entry \"skip.bin\" should not have been emitted")
	}
}

func TestWalkDir_MaxFileSizeSkipsLargeFiles(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "big.bin"), make([]byte, 100), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	producer, err := WalkDir(root, WithMaxFileSize(10))
	if err != nil {
		t.Fatalf("WalkDir: %v", err)
	}
	for {
		e, err := producer.Next()
		if err != nil {
			break
		}
		if e.Kind == sharedstorage.EventFile && e.Name == "big.bin" {
			t.Fatal("file exceeding WithMaxFileSize should have been skipped")
		}
	}
}
