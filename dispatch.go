package netutil

import (
	"sort"
	"sync"
)

// dispatcher keeps the registered callbacks and receivers of a host and fans
// out the difference between consecutive snapshots.
type dispatcher struct {
	host  Host
	level int

	mu        sync.Mutex
	closed    bool
	callbacks map[NetworkCallback]struct{}
	receivers map[Receiver]struct{}
	last      []NetworkInfo

	// Serializes delivery so callbacks observe snapshots in order.
	deliverMu sync.Mutex
}

func newDispatcher(host Host, level int) *dispatcher {
	return &dispatcher{
		host:      host,
		level:     level,
		callbacks: make(map[NetworkCallback]struct{}),
		receivers: make(map[Receiver]struct{}),
	}
}

func (d *dispatcher) Level() int {
	return d.level
}

func (d *dispatcher) RegisterNetworkCallback(cb NetworkCallback) error {
	d.deliverMu.Lock()
	defer d.deliverMu.Unlock()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrHostClosed
	}
	if _, ok := d.callbacks[cb]; ok {
		d.mu.Unlock()
		return ErrAlreadyRegistered
	}
	d.callbacks[cb] = struct{}{}
	current := availableNetworks(d.last)
	d.mu.Unlock()

	for _, n := range current {
		cb.OnAvailable(n)
	}
	return nil
}

func (d *dispatcher) UnregisterNetworkCallback(cb NetworkCallback) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.callbacks[cb]; !ok {
		return ErrNotRegistered
	}
	delete(d.callbacks, cb)
	return nil
}

func (d *dispatcher) RegisterReceiver(r Receiver) error {
	d.deliverMu.Lock()
	defer d.deliverMu.Unlock()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrHostClosed
	}
	if _, ok := d.receivers[r]; ok {
		d.mu.Unlock()
		return ErrAlreadyRegistered
	}
	d.receivers[r] = struct{}{}
	d.mu.Unlock()

	r.OnReceive(d.host, Intent{Action: ActionConnectivityChange})
	return nil
}

func (d *dispatcher) UnregisterReceiver(r Receiver) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.receivers[r]; !ok {
		return ErrNotRegistered
	}
	delete(d.receivers, r)
	return nil
}

func (d *dispatcher) ActiveNetwork() (NetworkInfo, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return activeNetwork(d.last)
}

// close drops every registration. Registrations after close fail with
// ErrHostClosed.
func (d *dispatcher) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	clear(d.callbacks)
	clear(d.receivers)
}

// update replaces the last snapshot and notifies registrations of the
// networks that became available or were lost. Receivers are only notified
// when the snapshot actually changed.
func (d *dispatcher) update(snapshot []NetworkInfo) {
	sortSnapshot(snapshot)

	d.deliverMu.Lock()
	defer d.deliverMu.Unlock()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	prev := d.last
	d.last = snapshot
	added, lost := diffAvailable(prev, snapshot)
	changed := !sameSnapshot(prev, snapshot)

	callbacks := make([]NetworkCallback, 0, len(d.callbacks))
	for cb := range d.callbacks {
		callbacks = append(callbacks, cb)
	}
	var receivers []Receiver
	if changed {
		receivers = make([]Receiver, 0, len(d.receivers))
		for r := range d.receivers {
			receivers = append(receivers, r)
		}
	}
	d.mu.Unlock()

	// New networks are announced before old ones are lost, so a handover
	// never passes through an empty set.
	for _, cb := range callbacks {
		for _, n := range added {
			cb.OnAvailable(n)
		}
		for _, n := range lost {
			cb.OnLost(n)
		}
	}
	for _, r := range receivers {
		r.OnReceive(d.host, Intent{Action: ActionConnectivityChange})
	}
}

func sortSnapshot(s []NetworkInfo) {
	sort.Slice(s, func(i, j int) bool { return s[i].Index < s[j].Index })
}

func availableNetworks(s []NetworkInfo) []Network {
	var out []Network
	for _, info := range s {
		if info.Available {
			out = append(out, info.Network)
		}
	}
	return out
}

func diffAvailable(prev, next []NetworkInfo) (added, lost []Network) {
	before := make(map[Network]struct{}, len(prev))
	for _, n := range availableNetworks(prev) {
		before[n] = struct{}{}
	}
	after := make(map[Network]struct{}, len(next))
	for _, n := range availableNetworks(next) {
		after[n] = struct{}{}
		if _, ok := before[n]; !ok {
			added = append(added, n)
		}
	}
	for _, n := range availableNetworks(prev) {
		if _, ok := after[n]; !ok {
			lost = append(lost, n)
		}
	}
	return added, lost
}

func sameSnapshot(a, b []NetworkInfo) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// activeNetwork expects a snapshot sorted by index.
func activeNetwork(s []NetworkInfo) (NetworkInfo, bool) {
	for _, info := range s {
		if info.Available {
			return info, true
		}
	}
	if len(s) > 0 {
		return s[0], true
	}
	return NetworkInfo{}, false
}
