package notify

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/kestrelfs/notify/internal"
)

// pollEntry is a bucket record. kind is captured at insertion time and
// reported unchanged on removal, since by the time a path is noticed gone
// there is nothing left to stat to re-derive it.
type pollEntry struct {
	mtime time.Time
	kind  Kind
}

// pollRun is the userspace polling fallback's runFunc. It distinguishes
// only file-level create/modify/destroy; it never emits rename (a rename
// surfaces here as a destroy of the old path and a create of the new one).
func pollRun(root string, o *options, alive func() bool, emit func(Event)) bool {
	bucket := make(map[string]pollEntry)
	populated := false

	// tend fills the bucket on the first tick only, so files created later
	// (even into an empty root) are reported by the scan as Create. On later
	// ticks it only checks that root still exists.
	tend := func() bool {
		if populated {
			_, err := os.Stat(root)
			return err == nil
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsPermission(err) {
					return nil
				}
				return err
			}
			if d.Type().IsRegular() {
				info, err := d.Info()
				if err != nil {
					return nil
				}
				bucket[path] = pollEntry{mtime: info.ModTime(), kind: File}
			}
			return nil
		})
		populated = err == nil
		return populated
	}

	for alive() {
		if !tend() {
			emit(metaEvent(Destroy, now(), dieBadFSMsg(root)))
			return false
		}

		// Prune: entries whose paths no longer exist.
		for path, entry := range bucket {
			if _, err := os.Lstat(path); err != nil && os.IsNotExist(err) {
				delete(bucket, path)
				emit(Event{Where: path, What: Destroy, Kind: entry.kind, When: now()})
				internal.DebugPoll(path, "destroy")
			}
		}

		// Scan: recursively walk and compare against the bucket.
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsPermission(err) {
					return nil
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				if prior, ok := bucket[path]; ok {
					delete(bucket, path)
					emit(Event{Where: path, What: Destroy, Kind: prior.kind, When: now()})
				}
				return nil
			}

			prior, ok := bucket[path]
			switch {
			case !ok:
				bucket[path] = pollEntry{mtime: info.ModTime(), kind: File}
				emit(Event{Where: path, What: Create, Kind: File, When: now()})
				internal.DebugPoll(path, "create")
			case !prior.mtime.Equal(info.ModTime()):
				bucket[path] = pollEntry{mtime: info.ModTime(), kind: File}
				emit(Event{Where: path, What: Modify, Kind: File, When: now()})
				internal.DebugPoll(path, "modify")
			}
			return nil
		})
		if err != nil {
			emit(metaEvent(Destroy, now(), dieBadFSMsg(root)))
			return false
		}

		time.Sleep(o.pollInterval)
	}

	emit(metaEvent(Destroy, now(), dieMsg(root)))
	return true
}
