//go:build linux

package notify

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// runInotify starts inotifyRun directly against root, bypassing selectBackend
// so the test doesn't depend on the process's privilege level.
func runInotify(t *testing.T, root string) (events chan Event, stop func()) {
	t.Helper()
	events = make(chan Event, 256)
	h := &Handle{done: make(chan struct{})}

	go func() {
		defer close(h.done)
		h.ok = inotifyRun(root, defaultOptions(), h.alive, func(e Event) { events <- e })
	}()

	return events, func() { h.Close() }
}

func TestInotifyDetectsCreateModifyDelete(t *testing.T) {
	tmp := t.TempDir()
	events, stop := runInotify(t, tmp)
	defer stop()

	time.Sleep(20 * time.Millisecond)

	target := filepath.Join(tmp, "a.txt")
	if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if !waitFor(events, func(e Event) bool { return e.Where == target && e.What == Create && e.Kind == File }) {
		t.Fatal("expected a create event for the new file")
	}

	if err := os.WriteFile(target, []byte("xyz"), 0644); err != nil {
		t.Fatal(err)
	}
	if !waitFor(events, func(e Event) bool { return e.Where == target && e.What == Modify }) {
		t.Fatal("expected a modify event")
	}

	if err := os.Remove(target); err != nil {
		t.Fatal(err)
	}
	if !waitFor(events, func(e Event) bool { return e.Where == target && e.What == Destroy }) {
		t.Fatal("expected a destroy event")
	}
}

func TestInotifyRecursesIntoNewSubdirectories(t *testing.T) {
	tmp := t.TempDir()
	events, stop := runInotify(t, tmp)
	defer stop()

	time.Sleep(20 * time.Millisecond)

	sub := filepath.Join(tmp, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if !waitFor(events, func(e Event) bool { return e.Where == sub && e.What == Create && e.Kind == Dir }) {
		t.Fatal("expected a create event for the new directory")
	}

	// The adapter should have registered a watch on sub; a file created
	// inside it must also be observed.
	nested := filepath.Join(sub, "b.txt")
	if err := os.WriteFile(nested, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if !waitFor(events, func(e Event) bool { return e.Where == nested && e.What == Create }) {
		t.Fatal("expected a create event for a file inside the newly watched subdirectory")
	}
}
