package notify

import (
	"fmt"
	"regexp"
)

// Meta-event message grammar: {severity}/{origin}/{op}[@{root}[@{subpath}]].
// Events carrying one of these messages always have Kind == Watcher.

func metaEvent(what What, when int64, msg string) Event {
	return Event{Where: msg, What: what, Kind: Watcher, When: when}
}

// liveMsg builds the "watcher started successfully" message for root.
func liveMsg(root string) string { return "s/self/live@" + root }

// dieMsg builds the "watcher stopped cleanly" message for root.
func dieMsg(root string) string { return "s/self/die@" + root }

// dieErrMsg builds the "watcher stopped due to failure" message for root.
func dieErrMsg(root string) string { return "e/self/die@" + root }

// dieBadFSMsg builds the "watcher stopped, filesystem gone" message for root.
func dieBadFSMsg(root string) string { return "e/self/die/bad_fs@" + root }

// sysErrMsg builds a kernel/syscall failure message for the given op and root.
func sysErrMsg(op, root string) string { return fmt.Sprintf("e/sys/%s@%s", op, root) }

// notWatchedMsg builds the per-subpath soft-failure message.
func notWatchedMsg(root, subpath string) string {
	return fmt.Sprintf("w/sys/not_watched@%s@%s", root, subpath)
}

// selfOverflowMsg and sysOverflowMsg build the two overflow messages; the
// former is non-fatal (inotify), the latter fatal (fanotify).
func selfOverflowMsg(root string) string { return "e/self/overflow@" + root }
func sysOverflowMsg() string             { return "e/sys/overflow" }

// eventInfoMsg builds the "unexpected fanotify record variant" message.
func eventInfoMsg(root string) string { return "w/self/event_info@" + root }

var metaGrammar = regexp.MustCompile(`^([swe])/(self|sys)/([^@]+)(?:@([^@]*))?(?:@(.*))?$`)

// ParseMeta parses a meta-event message of the form
// {severity}/{origin}/{op}[@{root}[@{subpath}]] and reports whether it
// matched the documented grammar.
func ParseMeta(where string) (severity, origin, op, root, subpath string, ok bool) {
	m := metaGrammar.FindStringSubmatch(where)
	if m == nil {
		return "", "", "", "", "", false
	}
	return m[1], m[2], m[3], m[4], m[5], true
}
