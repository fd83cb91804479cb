//go:build notify_poll

package notify

func selectBackend(root string, o *options) (runFunc, error) {
	return pollRun, nil
}
