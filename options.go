package notify

import "time"

// options collects the tunables every adapter may read. Adapters that don't
// care about a given field simply ignore it.
type options struct {
	bufferSize   uint          // FILE_NOTIFY_INFORMATION / fanotify / inotify read buffer size
	pollInterval time.Duration // tick period for the polling adapter and every
	// adapter's suspension-point latency; defaults to 16ms
	forcePoll bool // force the polling adapter regardless of platform
}

func defaultOptions() *options {
	return &options{
		bufferSize:   8192,
		pollInterval: 16 * time.Millisecond,
	}
}

// Option configures a Watch call. Options compose the same way
// functional options do throughout this package's upstream: each Option
// mutates the shared *options before the watcher starts.
type Option func(*options)

// WithBufferSize sets the raw read-buffer size used by the
// ReadDirectoryChangesW, fanotify, and inotify adapters. It has no effect on
// FSEvents or the polling adapter.
func WithBufferSize(n uint) Option {
	return func(o *options) { o.bufferSize = n }
}

// WithPollInterval overrides the 16ms suspension-point / tick interval used
// by every adapter's liveness check and by the polling adapter's scan tick.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) { o.pollInterval = d }
}

// WithForcePoll forces the userspace polling adapter even on a platform that
// would otherwise select a native backend. Intended for tests.
func WithForcePoll() Option {
	return func(o *options) { o.forcePoll = true }
}
