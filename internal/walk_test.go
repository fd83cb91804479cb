package internal

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestDescendVisitsAllSubdirectories(t *testing.T) {
	tmp := t.TempDir()
	for _, d := range []string{"a", "a/b", "c"} {
		if err := os.MkdirAll(filepath.Join(tmp, d), 0755); err != nil {
			t.Fatal(err)
		}
	}
	// A regular file at the root should not itself be descended into.
	if err := os.WriteFile(filepath.Join(tmp, "file.txt"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	var got []string
	err := Descend(tmp, func(dir string) error {
		rel, err := filepath.Rel(tmp, dir)
		if err != nil {
			return err
		}
		got = append(got, rel)
		return nil
	})
	if err != nil {
		t.Fatalf("Descend: %s", err)
	}

	want := []string{".", "a", "a/b", "c"}
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("have %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("have %v, want %v", got, want)
			break
		}
	}
}

func TestDescendOnFileIsNoop(t *testing.T) {
	tmp := t.TempDir()
	f := filepath.Join(tmp, "file.txt")
	if err := os.WriteFile(f, nil, 0644); err != nil {
		t.Fatal(err)
	}

	called := false
	if err := Descend(f, func(dir string) error { called = true; return nil }); err != nil {
		t.Fatalf("Descend: %s", err)
	}
	if called {
		t.Error("Descend should not call fn for a non-directory root")
	}
}

func TestDescendMissingRoot(t *testing.T) {
	err := Descend(filepath.Join(t.TempDir(), "nope"), func(string) error { return nil })
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("have %v, want a not-exist error", err)
	}
}

func TestDescendPermissionErrorSkipsSubtree(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks don't apply when running as root")
	}

	tmp := t.TempDir()
	blocked := filepath.Join(tmp, "blocked")
	if err := os.MkdirAll(blocked, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(blocked, 0); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(blocked, 0755)

	err := Descend(tmp, func(dir string) error { return nil })
	if err != nil {
		t.Errorf("a permission error inside the tree should be swallowed, got %v", err)
	}
}
