//go:build linux

package internal

import (
	"errors"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Poller waits for readiness on a single watched descriptor (inotify or
// fanotify) with a bounded timeout, and can be woken early from another
// goroutine via Wake. It is shared by the fanotify and inotify adapters,
// which otherwise only differ in how they decode what they read off fd.
type Poller struct {
	fd   int    // the descriptor being watched
	epfd int    // epoll instance
	pipe [2]int // wakeup pipe; pipe[0] is the read end
}

// NewPoller registers fd with a fresh epoll instance alongside an internal
// wakeup pipe.
func NewPoller(fd int) (*Poller, error) {
	p := &Poller{fd: fd}

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, os.NewSyscallError("epoll_create1", err)
	}
	p.epfd = epfd

	if err := unix.Pipe2(p.pipe[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		unix.Close(p.epfd)
		return nil, os.NewSyscallError("pipe2", err)
	}

	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, p.fd,
		&unix.EpollEvent{Fd: int32(p.fd), Events: unix.EPOLLIN}); err != nil {
		p.Close()
		return nil, os.NewSyscallError("epoll_ctl", err)
	}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, p.pipe[0],
		&unix.EpollEvent{Fd: int32(p.pipe[0]), Events: unix.EPOLLIN}); err != nil {
		p.Close()
		return nil, os.NewSyscallError("epoll_ctl", err)
	}

	return p, nil
}

// Wait blocks for up to timeout for fd to become readable. It returns
// ready == true when fd has data (or an error condition the caller's read
// will surface), and ready == false on a plain timeout or on a Wake call.
func (p *Poller) Wait(timeout time.Duration) (ready bool, err error) {
	events := make([]unix.EpollEvent, 4)
	ms := int(timeout / time.Millisecond)

	for {
		n, err := unix.EpollWait(p.epfd, events, ms)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return false, os.NewSyscallError("epoll_wait", err)
		}
		if n == 0 {
			return false, nil
		}

		var fdReady, woken bool
		for _, ev := range events[:n] {
			switch int(ev.Fd) {
			case p.fd:
				if ev.Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
					fdReady = true
				}
			case p.pipe[0]:
				if ev.Events&unix.EPOLLIN != 0 {
					woken = true
					p.drainWake()
				}
			}
		}
		if fdReady {
			return true, nil
		}
		if woken {
			return false, nil
		}
		return false, errors.New("notify: epoll_wait returned an event on neither the watched nor the wakeup descriptor")
	}
}

// Wake unblocks a concurrent Wait call.
func (p *Poller) Wake() error {
	_, err := unix.Write(p.pipe[1], []byte{0})
	return err
}

func (p *Poller) drainWake() {
	var buf [64]byte
	for {
		n, err := unix.Read(p.pipe[0], buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

// Close releases the epoll instance and wakeup pipe; the watched fd itself
// is owned by the caller.
func (p *Poller) Close() {
	unix.Close(p.epfd)
	unix.Close(p.pipe[0])
	unix.Close(p.pipe[1])
}
