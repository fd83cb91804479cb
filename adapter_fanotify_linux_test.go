//go:build linux

package notify

import (
	"testing"
	"unsafe"

	"golang.org/x/sys/unix"
)

func TestFanotifyWhat(t *testing.T) {
	tests := []struct {
		name string
		mask uint64
		want What
	}{
		{"create", unix.FAN_CREATE, Create},
		{"moved_to", unix.FAN_MOVED_TO, Rename},
		{"delete", unix.FAN_DELETE, Destroy},
		{"delete_self", unix.FAN_DELETE_SELF, Destroy},
		{"modify", unix.FAN_MODIFY, Modify},
		{"moved_from", unix.FAN_MOVED_FROM, Rename},
		{"move_self", unix.FAN_MOVE_SELF, Rename},
		{"attrib is not classified (attribute changes are untracked)", unix.FAN_ATTRIB, Other},
		{"unknown", 0, Other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if have := fanotifyWhat(tt.mask); have != tt.want {
				t.Errorf("have %s, want %s", have, tt.want)
			}
		})
	}
}

func TestFanotifyMarkMaskIncludesMovedTo(t *testing.T) {
	// Unlike the inotify mask, the fanotify mark mask requests both halves
	// of a move: FAN_MOVED_FROM and FAN_MOVED_TO are both classified Rename.
	if fanotifyMarkMask&unix.FAN_MOVED_TO == 0 {
		t.Error("fanotifyMarkMask must include FAN_MOVED_TO")
	}
}

// buildFanotifyFIDRecord constructs the bytes of a
// FAN_EVENT_INFO_TYPE_DFID_NAME-shaped record (header + fsid + file handle
// bytes/type + trailing NUL-terminated name) the way the kernel would lay it
// out, for fanotifyFileHandle to parse.
func buildFanotifyFIDRecord(handleBytes []byte, handleType int32, name string) []byte {
	headerLen := int(unsafe.Sizeof(fanotifyEventInfoHeader{}))
	fsidLen := int(unsafe.Sizeof(kernelFSID{}))

	buf := make([]byte, headerLen+fsidLen)
	// header + fsid contents are opaque to fanotifyFileHandle; zero is fine.

	put32 := func(v int32) {
		buf = append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	put32(int32(len(handleBytes)))
	put32(handleType)
	buf = append(buf, handleBytes...)
	buf = append(buf, []byte(name)...)
	buf = append(buf, 0)
	return buf
}

func TestFanotifyFileHandle(t *testing.T) {
	handleBytes := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	rec := buildFanotifyFIDRecord(handleBytes, 42, "some-file.txt")

	handle, name := fanotifyFileHandle(rec, 0)
	if name != "some-file.txt" {
		t.Errorf("name: have %q, want %q", name, "some-file.txt")
	}
	if handle.Size() != len(handleBytes) {
		t.Errorf("handle size: have %d, want %d", handle.Size(), len(handleBytes))
	}
}

func TestFanotifyFileHandleEmptyName(t *testing.T) {
	rec := buildFanotifyFIDRecord([]byte{9, 9, 9, 9}, 7, "")
	_, name := fanotifyFileHandle(rec, 0)
	if name != "" {
		t.Errorf("name: have %q, want empty", name)
	}
}
