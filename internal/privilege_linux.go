//go:build linux

package internal

import (
	"os"

	"github.com/syndtr/gocapability/capability"
)

// HaveCapSysAdmin reports whether the current process holds CAP_SYS_ADMIN in
// its effective set, the privilege fanotify's notification class requires.
// Root normally carries it implicitly, but a process can also be granted the
// capability without being uid 0 (file capabilities, user namespaces), so
// this is checked independently of os.Geteuid.
func HaveCapSysAdmin() bool {
	caps, err := capability.NewPid2(os.Getpid())
	if err != nil {
		return false
	}
	if err := caps.Load(); err != nil {
		return false
	}
	return caps.Get(capability.EFFECTIVE, capability.CAP_SYS_ADMIN)
}
