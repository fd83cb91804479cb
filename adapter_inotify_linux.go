//go:build linux

package notify

import (
	"sync"
	"unsafe"

	"github.com/kestrelfs/notify/internal"
	"golang.org/x/sys/unix"
)

// inotifyMask watches create, modify, delete, moved-from, and queue-overflow
// events. IN_MOVED_TO is deliberately left out: a rename only ever surfaces
// here as its moved-from half, never paired with an arrival event for the
// new name.
const inotifyMask = unix.IN_CREATE | unix.IN_MODIFY | unix.IN_DELETE |
	unix.IN_DELETE_SELF | unix.IN_MOVED_FROM | unix.IN_Q_OVERFLOW

// wdMap is the watch-descriptor → path bookkeeping the inotify adapter needs
// to recover a directory's path from the bare wd the kernel hands back.
type wdMap struct {
	mu   sync.RWMutex
	byWd map[int32]string
}

func newWdMap() *wdMap {
	return &wdMap{byWd: make(map[int32]string, 256)}
}

func (m *wdMap) put(wd int32, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byWd[wd] = path
}

func (m *wdMap) path(wd int32) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.byWd[wd]
	return p, ok
}

func (m *wdMap) remove(wd int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byWd, wd)
}

// inotifyRun is the inotify adapter's runFunc. Selected on any Linux kernel
// (and always on Android, regardless of kernel/capability checks).
func inotifyRun(root string, o *options, alive func() bool, emit func(Event)) bool {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		emit(metaEvent(Watcher, now(), sysErrMsg("inotify_init", root)))
		emit(metaEvent(Destroy, now(), dieErrMsg(root)))
		return false
	}
	defer unix.Close(fd)

	wds := newWdMap()
	addWatch := func(dir string) {
		wd, err := unix.InotifyAddWatch(fd, dir, inotifyMask)
		if err != nil {
			emit(metaEvent(Watcher, now(), notWatchedMsg(root, dir)))
			return
		}
		wds.put(int32(wd), dir)
	}
	if err := internal.Descend(root, func(dir string) error { addWatch(dir); return nil }); err != nil {
		emit(metaEvent(Destroy, now(), dieBadFSMsg(root)))
		return false
	}

	poller, err := internal.NewPoller(fd)
	if err != nil {
		emit(metaEvent(Watcher, now(), sysErrMsg("epoll_create", root)))
		emit(metaEvent(Destroy, now(), dieErrMsg(root)))
		return false
	}
	defer poller.Close()

	buf := make([]byte, o.bufferSize)

	for alive() {
		ready, err := poller.Wait(o.pollInterval)
		if err != nil {
			emit(metaEvent(Watcher, now(), sysErrMsg("epoll_wait", root)))
			emit(metaEvent(Destroy, now(), dieErrMsg(root)))
			return false
		}
		if !ready {
			continue
		}

		for {
			n, err := unix.Read(fd, buf)
			if err != nil {
				if err == unix.EAGAIN {
					break
				}
				if err == unix.EINTR {
					continue
				}
				emit(metaEvent(Watcher, now(), sysErrMsg("read", root)))
				emit(metaEvent(Destroy, now(), dieErrMsg(root)))
				return false
			}
			if n < unix.SizeofInotifyEvent {
				break
			}

			off := 0
			for off+unix.SizeofInotifyEvent <= n {
				raw := (*unix.InotifyEvent)(unsafe.Pointer(&buf[off]))
				mask := uint32(raw.Mask)
				nameLen := int(raw.Len)

				if mask&unix.IN_Q_OVERFLOW != 0 {
					emit(metaEvent(Watcher, now(), selfOverflowMsg(root)))
					off += unix.SizeofInotifyEvent + nameLen
					continue
				}

				dir, known := wds.path(raw.Wd)
				path := dir
				if nameLen > 0 {
					name := cStringAt(buf, off+unix.SizeofInotifyEvent, nameLen)
					if path != "" {
						path += "/" + name
					} else {
						path = name
					}
				}

				internal.Debug(path, mask)

				if mask&unix.IN_IGNORED == 0 {
					kind := File
					if mask&unix.IN_ISDIR != 0 {
						kind = Dir
					}
					what := inotifyWhat(mask)
					emit(Event{Where: path, What: what, Kind: kind, When: now()})

					if known {
						switch {
						case kind == Dir && what == Create:
							addWatch(path)
						case mask&unix.IN_DELETE_SELF != 0:
							wds.remove(raw.Wd)
						}
					}
				}

				off += unix.SizeofInotifyEvent + nameLen
			}
		}
	}

	emit(metaEvent(Destroy, now(), dieMsg(root)))
	return true
}

func cStringAt(buf []byte, off, n int) string {
	end := off
	for end < off+n && buf[end] != 0 {
		end++
	}
	return string(buf[off:end])
}

func inotifyWhat(mask uint32) What {
	switch {
	case mask&unix.IN_CREATE != 0:
		return Create
	case mask&(unix.IN_DELETE|unix.IN_DELETE_SELF) != 0:
		return Destroy
	case mask&unix.IN_MODIFY != 0:
		return Modify
	case mask&unix.IN_MOVED_FROM != 0:
		return Rename
	default:
		return Other
	}
}
