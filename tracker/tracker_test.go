// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package tracker_test

import (
	"os"
	"path/filepath"
	"testing"

	sharedstorage "github.com/strongdm/shared-storage"
	"github.com/strongdm/shared-storage/tracker"
)

func TestTracker_SkipsUnchangedTree(t *testing.T) {
	base := t.TempDir()
	store, err := sharedstorage.Open(base)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	engine := sharedstorage.NewEngine(store, sharedstorage.NewSimpleResourceProvider(4, 1<<20))

	source := t.TempDir()
	if err := os.WriteFile(filepath.Join(source, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tr := tracker.New(engine, source, "tracked")

	changed, err := tr.ImportIfChanged()
	if err != nil {
		t.Fatalf("first ImportIfChanged: %v", err)
	}
	if !changed {
		t.Fatal("first call against a never-imported tree should import")
	}

	changed, err = tr.ImportIfChanged()
	if err != nil {
		t.Fatalf("second ImportIfChanged: %v", err)
	}
	if changed {
		t.Error("re-running against an unchanged tree should be a no-op")
	}

	if err := os.WriteFile(filepath.Join(source, "b.txt"), []byte("world"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	changed, err = tr.ImportIfChanged()
	if err != nil {
		t.Fatalf("third ImportIfChanged: %v", err)
	}
	if !changed {
		t.Error("adding a file should be detected as a change")
	}
}
