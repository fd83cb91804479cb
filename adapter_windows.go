//go:build windows

package notify

import (
	"os"
	"path/filepath"
	"reflect"
	"unsafe"

	"github.com/kestrelfs/notify/internal"
	"golang.org/x/sys/windows"
)

const windowsNotifyMask = windows.FILE_NOTIFY_CHANGE_SECURITY |
	windows.FILE_NOTIFY_CHANGE_CREATION | windows.FILE_NOTIFY_CHANGE_LAST_ACCESS |
	windows.FILE_NOTIFY_CHANGE_LAST_WRITE | windows.FILE_NOTIFY_CHANGE_SIZE |
	windows.FILE_NOTIFY_CHANGE_ATTRIBUTES | windows.FILE_NOTIFY_CHANGE_DIR_NAME |
	windows.FILE_NOTIFY_CHANGE_FILE_NAME

// windowsRun is the ReadDirectoryChangesW adapter's runFunc.
func windowsRun(root string, o *options, alive func() bool, emit func(Event)) bool {
	h, err := windows.CreateFile(windows.StringToUTF16Ptr(root),
		windows.FILE_LIST_DIRECTORY,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil, windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS|windows.FILE_FLAG_OVERLAPPED, 0)
	if err != nil {
		emit(metaEvent(Watcher, now(), sysErrMsg("CreateFile", root)))
		emit(metaEvent(Destroy, now(), dieErrMsg(root)))
		return false
	}
	defer windows.CloseHandle(h)

	port, err := windows.CreateIoCompletionPort(h, 0, 0, 0)
	if err != nil {
		emit(metaEvent(Watcher, now(), sysErrMsg("CreateIoCompletionPort", root)))
		emit(metaEvent(Destroy, now(), dieErrMsg(root)))
		return false
	}
	defer windows.CloseHandle(port)

	event, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		emit(metaEvent(Watcher, now(), sysErrMsg("CreateEvent", root)))
		emit(metaEvent(Destroy, now(), dieErrMsg(root)))
		return false
	}
	defer windows.CloseHandle(event)

	buf := make([]byte, o.bufferSize)
	ov := new(windows.Overlapped)
	ov.HEvent = event

	issueRead := func() error {
		ov.HEvent = event
		return windows.ReadDirectoryChanges(h, &buf[0], uint32(len(buf)), true, windowsNotifyMask, nil, ov, 0)
	}

	if err := issueRead(); err != nil {
		if err == windows.ERROR_IO_PENDING {
			emit(metaEvent(Watcher, now(), sysErrMsg("read/pending", root)))
		} else {
			emit(metaEvent(Watcher, now(), sysErrMsg("read", root)))
		}
		emit(metaEvent(Destroy, now(), dieErrMsg(root)))
		return false
	}

	for alive() {
		var n uint32
		var key uintptr
		var cov *windows.Overlapped
		qErr := windows.GetQueuedCompletionStatus(port, &n, &key, &cov, uint32(o.pollInterval.Milliseconds()))
		if qErr != nil {
			if qErr == windows.WAIT_TIMEOUT {
				continue
			}
			emit(metaEvent(Watcher, now(), sysErrMsg("completion_port_wait", root)))
			emit(metaEvent(Destroy, now(), dieErrMsg(root)))
			return false
		}

		decodeWindowsBuffer(buf, n, root, emit)

		if err := issueRead(); err != nil && err != windows.ERROR_IO_PENDING {
			emit(metaEvent(Watcher, now(), sysErrMsg("read", root)))
			emit(metaEvent(Destroy, now(), dieErrMsg(root)))
			return false
		}
	}

	emit(metaEvent(Destroy, now(), dieMsg(root)))
	return true
}

// decodeWindowsBuffer walks the FILE_NOTIFY_INFORMATION records completed
// into buf[:n]. Each step is bounded by offset+recordSize <= n so a
// truncated trailing record never gets read past the end of valid data.
func decodeWindowsBuffer(buf []byte, n uint32, root string, emit func(Event)) {
	var offset uint32
	for offset+uint32(unsafe.Sizeof(windows.FileNotifyInformation{})) <= n {
		raw := (*windows.FileNotifyInformation)(unsafe.Pointer(&buf[offset]))
		if raw.FileNameLength == 0 || raw.FileNameLength%2 != 0 {
			break
		}
		recordEnd := offset + uint32(unsafe.Sizeof(windows.FileNotifyInformation{})) + raw.FileNameLength
		if recordEnd > n {
			break
		}

		size := int(raw.FileNameLength / 2)
		var u16 []uint16
		sh := (*reflect.SliceHeader)(unsafe.Pointer(&u16))
		sh.Data = uintptr(unsafe.Pointer(&raw.FileName))
		sh.Len = size
		sh.Cap = size
		name := windows.UTF16ToString(u16)
		path := filepath.Join(root, name)

		what := windowsWhat(raw.Action)
		kind := windowsKind(path)
		internal.Debug(path, raw.Action)
		emit(Event{Where: path, What: what, Kind: kind, When: now()})

		if raw.NextEntryOffset == 0 {
			break
		}
		offset += raw.NextEntryOffset
	}
}

func windowsWhat(action uint32) What {
	switch action {
	case windows.FILE_ACTION_ADDED:
		return Create
	case windows.FILE_ACTION_REMOVED:
		return Destroy
	case windows.FILE_ACTION_MODIFIED:
		return Modify
	case windows.FILE_ACTION_RENAMED_OLD_NAME, windows.FILE_ACTION_RENAMED_NEW_NAME:
		return Rename
	default:
		return Other
	}
}

func windowsKind(path string) Kind {
	info, err := os.Stat(path)
	if err != nil {
		return OtherKind
	}
	if info.IsDir() {
		return Dir
	}
	return File
}
