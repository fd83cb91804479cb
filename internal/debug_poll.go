package internal

import (
	"fmt"
	"os"
	"time"
)

// DebugPoll is the polling adapter's NOTIFY_DEBUG hook; unlike Debug (which
// on Linux and Windows decodes an OS-specific flag mask), the polling
// adapter works from
// os.FileInfo comparisons alone, so it just reports a free-form detail
// string.
func DebugPoll(name, detail string) {
	if os.Getenv("NOTIFY_DEBUG") == "" {
		return
	}
	fmt.Fprintf(os.Stderr, "%s  %-20s → %s\n", time.Now().Format("15:04:05.0000"), name, detail)
}
