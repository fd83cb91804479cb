package notify

import (
	"path/filepath"
	"sync"
	"time"
)

// runFunc is what every adapter boils down to: run the watch loop against
// root, calling emit for each event, and polling alive between suspension
// points. It returns true on clean shutdown, false if it terminated due to a
// fatal failure (in which case it must still have emitted the terminal
// meta-event itself before returning).
type runFunc func(root string, o *options, alive func() bool, emit func(Event)) bool

// Handle is returned by Watch. It owns the background worker started for
// that call and the shared closed flag the worker polls.
type Handle struct {
	mu     sync.Mutex
	closed bool
	done   chan struct{} // closed when the worker exits
	ok     bool          // worker's success status, valid once done is closed
}

// alive is the liveness predicate closed over the handle; adapters poll this
// at every suspension point.
func (h *Handle) alive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.closed
}

// Close sets the closed flag, waits for the worker to exit, and returns its
// success status. The sole blocking operation of the public API. Calling
// Close a second time returns false without blocking.
func (h *Handle) Close() bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.closed = true
	h.mu.Unlock()

	<-h.done
	return h.ok
}

// Watch starts watching path, recursively, and delivers every subsequent
// filesystem event under it to callback until the returned Handle is closed.
//
// callback is invoked synchronously by a single background worker; the one
// exception is the initial s/self/live meta-event, which Watch delivers on
// the calling goroutine before it returns. callback must not block
// indefinitely and must not call Close on its own handle.
func Watch(path string, callback func(Event), opts ...Option) (*Handle, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	run, err := selectBackend(root, o)
	if err != nil {
		return nil, err
	}

	h := &Handle{done: make(chan struct{})}

	callback(metaEvent(Create, now(), liveMsg(root)))

	go func() {
		defer close(h.done)
		h.ok = run(root, o, h.alive, callback)
	}()

	return h, nil
}

func now() int64 { return time.Now().UnixNano() }
