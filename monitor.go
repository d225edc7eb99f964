package netutil

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/iamcalledrob/netutil/internal/logger"
)

type Status struct {
	Available bool
	Kind      InterfaceKind
}

func (s Status) String() string {
	return fmt.Sprintf("Available: %t, Kind: %s", s.Available, s.Kind)
}

type InterfaceKind string

const (
	InterfaceTypeUnknown  InterfaceKind = "unknown"
	InterfaceTypeWired    InterfaceKind = "wired"
	InterfaceTypeWifi     InterfaceKind = "wifi"
	InterfaceTypeCellular InterfaceKind = "cellular"
)

// defaultStatus is reported while no strategy is registered.
var defaultStatus = Status{Available: true, Kind: InterfaceTypeUnknown}

// Monitor caches the connectivity reported by a Host through a single
// strategy chosen when it is registered.
type Monitor struct {
	force string

	mu       sync.Mutex
	host     Host
	strategy strategy
	primed   bool
	last     Status
	onChange func(Status)
}

type MonitorOption func(*Monitor)

// WithStrategy forces the callback or broadcast strategy regardless of the
// host's level. StrategyAuto restores level-based selection.
func WithStrategy(name string) MonitorOption {
	return func(m *Monitor) {
		m.force = name
	}
}

func NewMonitor(opts ...MonitorOption) *Monitor {
	m := &Monitor{
		last:     defaultStatus,
		onChange: func(Status) {},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register subscribes to h's connectivity notifications. It is a no-op if
// the monitor is already registered. If subscribing fails the monitor stays
// unregistered and the error is returned.
func (m *Monitor) Register(h Host) error {
	m.mu.Lock()
	if m.strategy != nil {
		m.mu.Unlock()
		logger.Debug("network monitor already registered")
		return nil
	}
	s := newStrategy(h.Level(), m.force, m.update)
	m.strategy = s
	m.host = h
	m.primed = false
	m.mu.Unlock()

	log := logger.WithFields(logrus.Fields{
		"strategy": s.name(),
		"level":    h.Level(),
	})

	// The host delivers the current state during subscribe; that is the
	// initial state, not a change.
	if err := s.subscribe(h); err != nil {
		m.mu.Lock()
		if m.strategy == s {
			m.strategy = nil
			m.host = nil
			m.last = defaultStatus
		}
		m.mu.Unlock()
		log.WithError(err).Warn("network monitor registration failed")
		return fmt.Errorf("subscribe %s: %w", s.name(), err)
	}

	m.mu.Lock()
	if m.strategy != s {
		// Unregister ran while subscribing and may have missed the
		// subscription; drop it so the host keeps no stale registration.
		m.mu.Unlock()
		if err := s.unsubscribe(h); err != nil {
			log.WithError(err).Debug("network monitor unsubscribe failed")
		}
		log.Debug("network monitor unregistered during registration")
		return nil
	}
	m.last = m.currentLocked()
	m.primed = true
	m.mu.Unlock()

	log.Info("network monitor registered")
	return nil
}

// Unregister unsubscribes from the host the monitor was registered with.
// Errors from the host are logged and otherwise ignored.
func (m *Monitor) Unregister(h Host) {
	m.mu.Lock()
	s, host := m.strategy, m.host
	if host == nil {
		host = h
	}
	m.strategy = nil
	m.host = nil
	m.primed = false
	m.last = defaultStatus
	m.mu.Unlock()

	if s == nil {
		return
	}
	if err := s.unsubscribe(host); err != nil {
		logger.WithError(err).WithField("strategy", s.name()).Debug("network monitor unsubscribe failed")
	}
	logger.WithField("strategy", s.name()).Info("network monitor unregistered")
}

// IsAvailable reports whether a network was available at the last host
// notification. It returns true while the monitor is not registered.
func (m *Monitor) IsAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.strategy == nil {
		return true
	}
	return m.strategy.isConnected()
}

// Current returns the availability together with the kind of the active
// network.
func (m *Monitor) Current() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentLocked()
}

// Strategy returns the name of the registered strategy, or "" when the
// monitor is not registered.
func (m *Monitor) Strategy() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.strategy == nil {
		return ""
	}
	return m.strategy.name()
}

// OnChange registers a callback to be invoked when the status changes.
// Registering a host from inside the callback will deadlock.
func (m *Monitor) OnChange(cb func(Status)) {
	if cb == nil {
		cb = func(Status) {}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = cb
}

func (m *Monitor) currentLocked() Status {
	if m.strategy == nil {
		return defaultStatus
	}
	st := Status{
		Available: m.strategy.isConnected(),
		Kind:      InterfaceTypeUnknown,
	}
	if st.Available {
		if info, ok := m.host.ActiveNetwork(); ok && info.Available {
			st.Kind = info.Kind
		}
	}
	return st
}

// update is called by the strategy after every notification.
func (m *Monitor) update() {
	m.mu.Lock()
	if m.strategy == nil || !m.primed {
		m.mu.Unlock()
		return
	}
	st := m.currentLocked()
	if st == m.last {
		m.mu.Unlock()
		return
	}
	m.last = st
	cb := m.onChange
	m.mu.Unlock()

	logger.WithFields(logrus.Fields{
		"available": st.Available,
		"kind":      st.Kind,
	}).Debug("network status changed")
	cb(st)
}
