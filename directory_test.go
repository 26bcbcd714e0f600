// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package sharedstorage

import (
	"encoding/json"
	"testing"
)

// =============================================================================
// Traverse / TraverseMut tests
// =============================================================================

func TestDirectory_TraverseMut_CreatesIntermediateDirectories(t *testing.T) {
	root := NewDirectory()
	sub, err := root.TraverseMut("a/b/c", true)
	if err != nil {
		t.Fatalf("TraverseMut: %v", err)
	}
	if !sub.IsEmpty() {
		t.Error("freshly created directory should be empty")
	}

	again, err := root.Traverse("a/b/c")
	if err != nil {
		t.Fatalf("Traverse after creation: %v", err)
	}
	if again != sub {
		t.Error("Traverse should return the same directory created by TraverseMut")
	}
}

func TestDirectory_Traverse_MissingEntryFails(t *testing.T) {
	root := NewDirectory()
	if _, err := root.Traverse("missing"); err == nil {
		t.Fatal("expected an error traversing a missing entry")
	}
}

func TestDirectory_Traverse_RejectsParentAndRoot(t *testing.T) {
	root := NewDirectory()
	cases := []string{"../escape", "/abs/path", `C:\windows`}
	for _, p := range cases {
		if _, err := root.Traverse(p); err == nil {
			t.Errorf("Traverse(%q) should have failed", p)
		}
	}
}

func TestDirectory_TraverseMut_DescendingIntoFileFails(t *testing.T) {
	root := NewDirectory()
	if err := root.InsertFile("leaf", Compute([]byte("x"), false)); err != nil {
		t.Fatalf("InsertFile: %v", err)
	}
	if _, err := root.TraverseMut("leaf/deeper", true); err == nil {
		t.Fatal("expected an error descending through a file entry")
	}
}

// =============================================================================
// InsertFile / Mkdir invariant tests (I3-I5)
// =============================================================================

func TestDirectory_InsertFile_IdempotentOnIdenticalIdentifier(t *testing.T) {
	root := NewDirectory()
	id := Compute([]byte("payload"), false)
	if err := root.InsertFile("f", id); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := root.InsertFile("f", id); err != nil {
		t.Fatalf("re-insert of identical file should be idempotent, got: %v", err)
	}
}

func TestDirectory_InsertFile_ConflictOnDifferentIdentifier(t *testing.T) {
	root := NewDirectory()
	if err := root.InsertFile("f", Compute([]byte("a"), false)); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := root.InsertFile("f", Compute([]byte("b"), false))
	if err == nil {
		t.Fatal("expected a conflict error inserting a different identifier under the same name")
	}
}

func TestDirectory_InsertFile_ConflictOverDirectory(t *testing.T) {
	root := NewDirectory()
	if err := root.Mkdir("d"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := root.InsertFile("d", Compute([]byte("a"), false)); err == nil {
		t.Fatal("expected a conflict error inserting a file over an existing directory entry")
	}
}

func TestDirectory_Mkdir_ConflictOverFile(t *testing.T) {
	root := NewDirectory()
	if err := root.InsertFile("f", Compute([]byte("a"), false)); err != nil {
		t.Fatalf("InsertFile: %v", err)
	}
	if err := root.Mkdir("f"); err == nil {
		t.Fatal("expected a conflict error making a directory over an existing file entry")
	}
}

func TestDirectory_Mkdir_IdempotentOnExistingDirectory(t *testing.T) {
	root := NewDirectory()
	if err := root.Mkdir("d"); err != nil {
		t.Fatalf("first mkdir: %v", err)
	}
	if err := root.Mkdir("d"); err != nil {
		t.Fatalf("re-mkdir of existing directory should be idempotent, got: %v", err)
	}
}

// =============================================================================
// JSON manifest round trip
// =============================================================================

func TestDirectory_JSONRoundTrip(t *testing.T) {
	root := NewDirectory()
	if err := root.Mkdir("bin"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	sub, err := root.Traverse("bin")
	if err != nil {
		t.Fatalf("Traverse: %v", err)
	}
	id := Compute([]byte("program body"), true)
	if err := sub.InsertFile("program", id); err != nil {
		t.Fatalf("InsertFile: %v", err)
	}

	data, err := json.Marshal(root)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var reloaded Directory
	if err := json.Unmarshal(data, &reloaded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	reloadedSub, err := reloaded.Traverse("bin")
	if err != nil {
		t.Fatalf("Traverse reloaded: %v", err)
	}
	entry, ok := reloadedSub.Entries()["program"].(FileEntry)
	if !ok {
		t.Fatal("expected a file entry named \"program\" after round trip")
	}
	if entry.Identifier != id {
		t.Errorf("round-tripped identifier = %+v, want %+v", entry.Identifier, id)
	}
}

func TestDirectory_JSONRoundTrip_NonUTF8Name(t *testing.T) {
	root := NewDirectory()
	name := string([]byte{0xff, 0xfe, 'x'})
	id := Compute([]byte("payload"), false)
	if err := root.InsertFile(name, id); err != nil {
		t.Fatalf("InsertFile: %v", err)
	}

	data, err := json.Marshal(root)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var reloaded Directory
	if err := json.Unmarshal(data, &reloaded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	entry, ok := reloaded.Entries()[name].(FileEntry)
	if !ok {
		t.Fatalf("expected the non-UTF-8 name %q to round-trip bit for bit", name)
	}
	if entry.Identifier != id {
		t.Errorf("round-tripped identifier mismatch for non-UTF-8 name")
	}
}

func TestParseDirectory_LiberalDialect(t *testing.T) {
	input := []byte(`{
		// a comment
		"entries": {
			"f": {"File": {"hash": "` + Compute([]byte("x"), false).Hash + `", "size": 1, "executable": false,},},
		},
	}`)
	dir, err := ParseDirectory(input)
	if err != nil {
		t.Fatalf("ParseDirectory: %v", err)
	}
	if _, ok := dir.Entries()["f"].(FileEntry); !ok {
		t.Fatal("expected entry \"f\" to parse as a file")
	}
}
