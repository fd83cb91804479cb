//go:build linux && !notify_poll

package notify

import (
	"os"
	"regexp"
	"runtime"
	"strconv"

	"github.com/kestrelfs/notify/internal"
	"golang.org/x/sys/unix"
)

var kernelVersionRe = regexp.MustCompile(`(\d+)\.(\d+)`)

// kernelAtLeast59 reports whether uname -r parses to 5.9 or newer. A parse
// failure is treated as "no", which routes to the always-available inotify
// adapter instead of panicking the dispatcher.
func kernelAtLeast59() bool {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return false
	}
	release := string(uts.Release[:])
	m := kernelVersionRe.FindStringSubmatch(release)
	if m == nil {
		return false
	}
	maj, err1 := strconv.Atoi(m[1])
	min, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return false
	}
	return maj > 5 || (maj == 5 && min >= 9)
}

func selectBackend(root string, o *options) (runFunc, error) {
	if o.forcePoll {
		return pollRun, nil
	}
	if runtime.GOOS == "android" {
		return inotifyRun, nil
	}
	if kernelAtLeast59() && os.Geteuid() == 0 && internal.HaveCapSysAdmin() {
		return fanotifyRun, nil
	}
	return inotifyRun, nil
}
