package notify

// selectBackend is implemented once per platform (dispatch_linux.go,
// dispatch_darwin.go, dispatch_windows.go, dispatch_other.go) and by the
// build-tag override in dispatch_forcepoll.go. It resolves o into a runFunc:
// on Linux with kernel >= 5.9, effective uid 0 and an effective
// CAP_SYS_ADMIN, fanotify;
// otherwise inotify (always inotify on Android); FSEvents on Darwin;
// ReadDirectoryChangesW on Windows; the polling adapter everywhere else, or
// whenever the notify_poll build tag or WithForcePoll is set.
