package netutil

import (
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/iamcalledrob/netutil/internal/logger"
)

// pollHost snapshots the host's interfaces on a fixed interval. It is the
// host for platforms without a native notification mechanism and the
// fallback when the native one is unavailable.
type pollHost struct {
	*dispatcher

	clock    clock.Clock
	snapshot func() ([]NetworkInfo, error)

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func newPollHost(o hostOptions) *pollHost {
	h := &pollHost{
		clock:    o.clock,
		snapshot: o.snapshot,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	h.dispatcher = newDispatcher(h, o.resolvedLevel())

	// Registrations made right after construction see the current state.
	h.poll()

	ticker := h.clock.Ticker(o.pollInterval)
	go h.run(ticker)

	logger.WithField("interval", o.pollInterval).Debug("polling host started")
	return h
}

func (h *pollHost) run(ticker *clock.Ticker) {
	defer close(h.done)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.poll()
		case <-h.stop:
			return
		}
	}
}

func (h *pollHost) poll() {
	s, err := h.snapshot()
	if err != nil {
		logger.WithError(err).Warn("network snapshot failed")
		return
	}
	h.update(s)
}

func (h *pollHost) Close() error {
	h.stopOnce.Do(func() {
		close(h.stop)
		<-h.done
		h.dispatcher.close()
	})
	return nil
}
