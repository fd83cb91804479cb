//go:build linux

package internal

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestPollerTimesOutWithNoData(t *testing.T) {
	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		t.Fatalf("pipe2: %s", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	p, err := NewPoller(fds[0])
	if err != nil {
		t.Fatalf("NewPoller: %s", err)
	}
	defer p.Close()

	ready, err := p.Wait(20 * time.Millisecond)
	if err != nil {
		t.Fatalf("Wait: %s", err)
	}
	if ready {
		t.Error("Wait should time out with no data on fd and report ready=false")
	}
}

func TestPollerReportsReadyOnData(t *testing.T) {
	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		t.Fatalf("pipe2: %s", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	p, err := NewPoller(fds[0])
	if err != nil {
		t.Fatalf("NewPoller: %s", err)
	}
	defer p.Close()

	if _, err := unix.Write(fds[1], []byte("x")); err != nil {
		t.Fatalf("write: %s", err)
	}

	ready, err := p.Wait(time.Second)
	if err != nil {
		t.Fatalf("Wait: %s", err)
	}
	if !ready {
		t.Error("Wait should report ready=true once fd has data")
	}
}

func TestPollerWake(t *testing.T) {
	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		t.Fatalf("pipe2: %s", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	p, err := NewPoller(fds[0])
	if err != nil {
		t.Fatalf("NewPoller: %s", err)
	}
	defer p.Close()

	done := make(chan struct{})
	var ready bool
	go func() {
		defer close(done)
		ready, _ = p.Wait(5 * time.Second)
	}()

	time.Sleep(20 * time.Millisecond)
	if err := p.Wake(); err != nil {
		t.Fatalf("Wake: %s", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wake did not unblock Wait")
	}
	if ready {
		t.Error("a woken Wait should report ready=false")
	}
}
