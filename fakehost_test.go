package netutil

import "sync"

// fakeHost delivers notifications synchronously from the test goroutine.
type fakeHost struct {
	level int

	mu        sync.Mutex
	callbacks []NetworkCallback
	receivers []Receiver
	available []Network
	active    NetworkInfo
	hasActive bool

	registerErr   error
	unregisterErr error
	// beforeRegister runs before a registration is recorded.
	beforeRegister func()
}

func newFakeHost(level int) *fakeHost {
	return &fakeHost{level: level}
}

func (h *fakeHost) Level() int { return h.level }

func (h *fakeHost) RegisterNetworkCallback(cb NetworkCallback) error {
	if h.registerErr != nil {
		return h.registerErr
	}
	if h.beforeRegister != nil {
		h.beforeRegister()
	}
	h.mu.Lock()
	h.callbacks = append(h.callbacks, cb)
	current := append([]Network(nil), h.available...)
	h.mu.Unlock()
	for _, n := range current {
		cb.OnAvailable(n)
	}
	return nil
}

func (h *fakeHost) UnregisterNetworkCallback(cb NetworkCallback) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, c := range h.callbacks {
		if c == cb {
			h.callbacks = append(h.callbacks[:i], h.callbacks[i+1:]...)
			return h.unregisterErr
		}
	}
	if h.unregisterErr != nil {
		return h.unregisterErr
	}
	return ErrNotRegistered
}

func (h *fakeHost) RegisterReceiver(r Receiver) error {
	if h.registerErr != nil {
		return h.registerErr
	}
	h.mu.Lock()
	h.receivers = append(h.receivers, r)
	h.mu.Unlock()
	r.OnReceive(h, Intent{Action: ActionConnectivityChange})
	return nil
}

func (h *fakeHost) UnregisterReceiver(r Receiver) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, rr := range h.receivers {
		if rr == r {
			h.receivers = append(h.receivers[:i], h.receivers[i+1:]...)
			return h.unregisterErr
		}
	}
	if h.unregisterErr != nil {
		return h.unregisterErr
	}
	return ErrNotRegistered
}

func (h *fakeHost) ActiveNetwork() (NetworkInfo, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active, h.hasActive
}

func (h *fakeHost) Close() error { return nil }

func (h *fakeHost) registrations() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.callbacks) + len(h.receivers)
}

// setActive changes the active network without notifying anyone.
func (h *fakeHost) setActive(info NetworkInfo, ok bool) {
	h.mu.Lock()
	h.active, h.hasActive = info, ok
	h.mu.Unlock()
}

func (h *fakeHost) networkAvailable(n Network) {
	h.mu.Lock()
	h.available = append(h.available, n)
	cbs := append([]NetworkCallback(nil), h.callbacks...)
	h.mu.Unlock()
	for _, cb := range cbs {
		cb.OnAvailable(n)
	}
}

func (h *fakeHost) networkLost(n Network) {
	h.mu.Lock()
	for i, a := range h.available {
		if a == n {
			h.available = append(h.available[:i], h.available[i+1:]...)
			break
		}
	}
	cbs := append([]NetworkCallback(nil), h.callbacks...)
	h.mu.Unlock()
	for _, cb := range cbs {
		cb.OnLost(n)
	}
}

func (h *fakeHost) broadcast(action string) {
	h.mu.Lock()
	rs := append([]Receiver(nil), h.receivers...)
	h.mu.Unlock()
	for _, r := range rs {
		r.OnReceive(h, Intent{Action: action})
	}
}
