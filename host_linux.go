//go:build linux

package netutil

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/iamcalledrob/netutil/internal/logger"
)

// The reader wakes up at least this often to notice Close.
const netlinkReadTimeout = 500 * time.Millisecond

// NewHost returns the native host for this platform: a rtnetlink listener.
// Where rtnetlink is not permitted (sandboxed Android apps, restricted
// containers) it falls back to polling.
func NewHost(opts ...HostOption) (Host, error) {
	o := defaultHostOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.forcePoll {
		return newPollHost(o), nil
	}

	h, err := newNetlinkHost(o)
	if err != nil {
		logger.WithError(err).Warn("rtnetlink unavailable, falling back to polling")
		return newPollHost(o), nil
	}
	return h, nil
}

type netlinkHost struct {
	*dispatcher

	fd       int
	snapshot func() ([]NetworkInfo, error)

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func newNetlinkHost(o hostOptions) (*netlinkHost, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.NETLINK_ROUTE)
	if err != nil {
		return nil, fmt.Errorf("netlink socket: %w", err)
	}
	sa := &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Groups: unix.RTMGRP_LINK | unix.RTMGRP_IPV4_IFADDR | unix.RTMGRP_IPV6_IFADDR,
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("netlink bind: %w", err)
	}
	tv := unix.NsecToTimeval(netlinkReadTimeout.Nanoseconds())
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("netlink receive timeout: %w", err)
	}

	h := &netlinkHost{
		fd:       fd,
		snapshot: o.snapshot,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	h.dispatcher = newDispatcher(h, o.resolvedLevel())

	// Subscribe first, then snapshot, so no change slips between the two.
	h.poll()
	go h.run()

	logger.Debug("rtnetlink host started")
	return h, nil
}

func (h *netlinkHost) run() {
	defer close(h.done)

	buf := make([]byte, 4*os.Getpagesize())
	for {
		select {
		case <-h.stop:
			return
		default:
		}

		n, _, err := unix.Recvfrom(h.fd, buf, 0)
		if err != nil {
			switch {
			case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
				continue
			case errors.Is(err, unix.ENOBUFS):
				// Kernel dropped messages; our view may be stale.
				h.poll()
				continue
			}
			logger.WithError(err).Error("rtnetlink receive failed, host stopped")
			return
		}
		if linkOrAddrChanged(buf[:n]) {
			h.poll()
		}
	}
}

func linkOrAddrChanged(b []byte) bool {
	msgs, err := syscall.ParseNetlinkMessage(b)
	if err != nil || len(msgs) == 0 {
		// Unparseable batch: resync rather than miss a change.
		return true
	}
	for _, m := range msgs {
		switch m.Header.Type {
		case unix.RTM_NEWLINK, unix.RTM_DELLINK, unix.RTM_NEWADDR, unix.RTM_DELADDR:
			return true
		}
	}
	return false
}

func (h *netlinkHost) poll() {
	s, err := h.snapshot()
	if err != nil {
		logger.WithError(err).Warn("network snapshot failed")
		return
	}
	h.update(s)
}

func (h *netlinkHost) Close() error {
	var err error
	h.stopOnce.Do(func() {
		close(h.stop)
		<-h.done
		h.dispatcher.close()
		if cerr := unix.Close(h.fd); cerr != nil {
			err = fmt.Errorf("close netlink socket: %w", cerr)
		}
	})
	return err
}
