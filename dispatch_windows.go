//go:build windows && !notify_poll

package notify

func selectBackend(root string, o *options) (runFunc, error) {
	if o.forcePoll {
		return pollRun, nil
	}
	return windowsRun, nil
}
