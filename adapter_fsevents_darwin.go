//go:build darwin

package notify

import (
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsevents"
	"github.com/kestrelfs/notify/internal"
)

// fseventsRun is the FSEvents adapter's runFunc.
func fseventsRun(root string, o *options, alive func() bool, emit func(Event)) bool {
	stream := &fsevents.EventStream{
		Paths:   []string{root},
		Latency: 0,
		Flags:   fsevents.FileEvents | fsevents.WatchRoot,
	}
	stream.Start()

	var (
		mu      sync.Mutex
		created = make(map[string]struct{}) // correctness-only dup-suppression set, not an LRU cache
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for batch := range stream.Events {
			for _, ev := range batch {
				handleFSEvent(ev, root, &mu, created, emit)
			}
		}
	}()

	for alive() {
		time.Sleep(o.pollInterval)
	}

	stream.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
	}

	emit(metaEvent(Destroy, now(), dieMsg(root)))
	return true
}

func handleFSEvent(ev fsevents.Event, root string, mu *sync.Mutex, created map[string]struct{}, emit func(Event)) {
	path := ev.Path
	if path == "" {
		return
	}

	if ev.Flags&(fsevents.MustScanSubDirs|fsevents.KernelDropped|fsevents.UserDropped) != 0 {
		emit(metaEvent(Watcher, now(), selfOverflowMsg(root)))
		return
	}

	kind := fsEventKind(ev.Flags)
	internal.Debug(path, strings.TrimSpace(kind.String()))

	if ev.Flags&fsevents.ItemCreated != 0 {
		mu.Lock()
		_, dup := created[path]
		if !dup {
			created[path] = struct{}{}
		}
		mu.Unlock()
		if !dup {
			emit(Event{Where: path, What: Create, Kind: kind, When: now()})
		}
	}
	if ev.Flags&fsevents.ItemRemoved != 0 {
		mu.Lock()
		_, ok := created[path]
		if ok {
			delete(created, path)
		}
		mu.Unlock()
		if ok {
			emit(Event{Where: path, What: Destroy, Kind: kind, When: now()})
		}
	}
	if ev.Flags&fsevents.ItemModified != 0 {
		emit(Event{Where: path, What: Modify, Kind: kind, When: now()})
	}
	if ev.Flags&fsevents.ItemRenamed != 0 {
		emit(Event{Where: path, What: Rename, Kind: kind, When: now()})
	}
}

func fsEventKind(flags fsevents.EventFlags) Kind {
	switch {
	case flags&fsevents.ItemIsFile != 0:
		return File
	case flags&fsevents.ItemIsDir != 0:
		return Dir
	case flags&fsevents.ItemIsSymlink != 0:
		return SymLink
	case flags&fsevents.ItemIsHardlink != 0:
		return HardLink
	default:
		return OtherKind
	}
}
