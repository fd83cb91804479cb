//go:build darwin

package internal

import (
	"fmt"
	"os"
	"time"
)

// Debug is a no-op unless NOTIFY_DEBUG is set in the environment, in which
// case it prints name and detail (a caller-formatted flag summary) to
// stderr, timestamped.
func Debug(name, detail string) {
	if os.Getenv("NOTIFY_DEBUG") == "" {
		return
	}
	fmt.Fprintf(os.Stderr, "%s  %-20s → %s\n", time.Now().Format("15:04:05.0000"), name, detail)
}
