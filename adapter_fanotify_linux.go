//go:build linux

package notify

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/kestrelfs/notify/internal"
	"golang.org/x/sys/unix"
)

// fanotifyEventInfoHeader mirrors struct fanotify_event_info_header, which
// golang.org/x/sys/unix does not expose.
type fanotifyEventInfoHeader struct {
	InfoType uint8
	pad      uint8
	Len      uint16
}

type kernelFSID struct{ val [2]int32 }

// fanotifyEventInfoFID mirrors struct fanotify_event_info_fid, covering the
// FAN_EVENT_INFO_TYPE_FID / _DFID / _DFID_NAME record variants; for the
// DFID_NAME variant a NUL-terminated name follows the file handle bytes.
type fanotifyEventInfoFID struct {
	Header     fanotifyEventInfoHeader
	fsid       kernelFSID
	fileHandle byte
}

var sizeOfFanotifyEventMetadata = uint32(unsafe.Sizeof(unix.FanotifyEventMetadata{}))

const fanotifyMarkMask = unix.FAN_ONDIR | unix.FAN_CREATE | unix.FAN_MODIFY |
	unix.FAN_DELETE | unix.FAN_DELETE_SELF | unix.FAN_MOVED_FROM |
	unix.FAN_MOVED_TO | unix.FAN_MOVE_SELF

// fanotifyRun is the fanotify adapter's runFunc. It requires Linux >= 5.9
// and CAP_SYS_ADMIN; dispatch_linux.go is responsible for only selecting it
// when both hold.
func fanotifyRun(root string, o *options, alive func() bool, emit func(Event)) bool {
	fd, err := unix.FanotifyInit(
		unix.FAN_CLASS_NOTIF|unix.FAN_REPORT_DIR_FID|unix.FAN_REPORT_NAME|unix.FAN_UNLIMITED_QUEUE|unix.FAN_UNLIMITED_MARKS|unix.FAN_CLOEXEC,
		unix.O_RDONLY|unix.O_LARGEFILE|unix.O_CLOEXEC|unix.O_NONBLOCK)
	if err != nil {
		emit(metaEvent(Destroy, now(), sysErrMsg("fanotify_init", root)))
		emit(metaEvent(Destroy, now(), dieErrMsg(root)))
		return false
	}
	defer unix.Close(fd)

	marks := make(map[string]struct{})
	mark := func(dir string) {
		if err := unix.FanotifyMark(fd, unix.FAN_MARK_ADD, fanotifyMarkMask, unix.AT_FDCWD, dir); err != nil {
			emit(metaEvent(Watcher, now(), notWatchedMsg(root, dir)))
			return
		}
		marks[dir] = struct{}{}
	}
	if err := internal.Descend(root, func(dir string) error { mark(dir); return nil }); err != nil {
		emit(metaEvent(Destroy, now(), dieBadFSMsg(root)))
		return false
	}

	poller, err := internal.NewPoller(fd)
	if err != nil {
		emit(metaEvent(Destroy, now(), sysErrMsg("epoll_create", root)))
		emit(metaEvent(Destroy, now(), dieErrMsg(root)))
		return false
	}
	defer poller.Close()

	buf := make([]byte, o.bufferSize)

	for alive() {
		ready, err := poller.Wait(o.pollInterval)
		if err != nil {
			emit(metaEvent(Destroy, now(), sysErrMsg("epoll_wait", root)))
			emit(metaEvent(Destroy, now(), dieErrMsg(root)))
			return false
		}
		if !ready {
			continue
		}

		n, err := unix.Read(fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			emit(metaEvent(Destroy, now(), sysErrMsg("read", root)))
			emit(metaEvent(Destroy, now(), dieErrMsg(root)))
			return false
		}
		if n < int(sizeOfFanotifyEventMetadata) {
			continue
		}

		off := 0
		for off+int(sizeOfFanotifyEventMetadata) <= n {
			meta := (*unix.FanotifyEventMetadata)(unsafe.Pointer(&buf[off]))
			if meta.Event_len < sizeOfFanotifyEventMetadata || int(meta.Event_len) > n-off {
				break
			}
			recLen := int(meta.Event_len)

			switch {
			case meta.Vers != unix.FANOTIFY_METADATA_VERSION:
				emit(metaEvent(Watcher, now(), sysErrMsg("kernel_version", root)))
			case meta.Mask&unix.FAN_Q_OVERFLOW != 0:
				emit(metaEvent(Watcher, now(), sysOverflowMsg()))
				emit(metaEvent(Destroy, now(), dieErrMsg(root)))
				return false
			case meta.Fd != unix.FAN_NOFD:
				emit(metaEvent(Watcher, now(), sysErrMsg("wrong_event_fd", root)))
			default:
				decodeFanotifyRecord(fd, buf, off, meta, root, mark, marks, emit)
			}

			off += recLen
		}
	}

	emit(metaEvent(Destroy, now(), dieMsg(root)))
	return true
}

func decodeFanotifyRecord(fd int, buf []byte, off int, meta *unix.FanotifyEventMetadata, root string,
	mark func(string), marks map[string]struct{}, emit func(Event)) {

	fidOff := off + int(meta.Metadata_len)
	if fidOff+int(unsafe.Sizeof(fanotifyEventInfoFID{})) > len(buf) {
		emit(metaEvent(Watcher, now(), eventInfoMsg(root)))
		return
	}
	fid := (*fanotifyEventInfoFID)(unsafe.Pointer(&buf[fidOff]))
	if fid.Header.InfoType != unix.FAN_EVENT_INFO_TYPE_DFID_NAME {
		emit(metaEvent(Watcher, now(), eventInfoMsg(root)))
		return
	}

	handle, name := fanotifyFileHandle(buf, fidOff)

	path, ok := fanotifyReconstructPath(handle)
	var where string
	if ok {
		if name != "" && name != "." {
			where = path + "/" + name
		} else {
			where = path
		}
	} else {
		where = name
	}

	mask := meta.Mask
	kind := File
	if mask&unix.FAN_ONDIR != 0 {
		kind = Dir
		mask &^= unix.FAN_ONDIR
	}

	internal.DebugFanotify(where, uint64(mask))

	what := fanotifyWhat(mask)
	emit(Event{Where: where, What: what, Kind: kind, When: now()})

	if kind == Dir {
		switch what {
		case Create:
			mark(where)
		case Destroy:
			delete(marks, where)
		}
	}
}

// fanotifyFileHandle parses the file-handle and trailing name out of a
// FAN_EVENT_INFO_TYPE_DFID_NAME record starting at fidOff within buf.
func fanotifyFileHandle(buf []byte, fidOff int) (unix.FileHandle, string) {
	headerLen := int(unsafe.Sizeof(fanotifyEventInfoHeader{}))
	fsidLen := int(unsafe.Sizeof(kernelFSID{}))
	j := fidOff + headerLen + fsidLen

	var fhBytes, fhType int32
	fhBytes = int32(buf[j]) | int32(buf[j+1])<<8 | int32(buf[j+2])<<16 | int32(buf[j+3])<<24
	j += 4
	fhType = int32(buf[j]) | int32(buf[j+1])<<8 | int32(buf[j+2])<<16 | int32(buf[j+3])<<24
	j += 4

	handle := unix.NewFileHandle(fhType, buf[j:j+int(fhBytes)])
	j += int(fhBytes)

	end := j
	for end < len(buf) && buf[end] != 0 {
		end++
	}
	return handle, string(buf[j:end])
}

// fanotifyReconstructPath recovers a directory's current absolute path from
// a file handle via open_by_handle_at + /proc/self/fd/<fd>; it is the only
// mechanism available to recover the path, and on failure the caller falls
// back to the bare filename.
func fanotifyReconstructPath(handle unix.FileHandle) (string, bool) {
	dfd, err := unix.OpenByHandleAt(unix.AT_FDCWD, handle, unix.O_PATH|unix.O_CLOEXEC|unix.O_NONBLOCK)
	if err != nil {
		return "", false
	}
	defer unix.Close(dfd)

	path, err := os.Readlink(fmt.Sprintf("/proc/self/fd/%d", dfd))
	if err != nil {
		return "", false
	}
	return path, true
}

func fanotifyWhat(mask uint64) What {
	switch {
	case mask&unix.FAN_CREATE != 0:
		return Create
	case mask&(unix.FAN_DELETE|unix.FAN_DELETE_SELF) != 0:
		return Destroy
	case mask&unix.FAN_MODIFY != 0:
		return Modify
	case mask&(unix.FAN_MOVED_FROM|unix.FAN_MOVED_TO|unix.FAN_MOVE_SELF) != 0:
		return Rename
	default:
		return Other
	}
}
