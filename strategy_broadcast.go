package netutil

import "sync/atomic"

// broadcastStrategy re-reads the active network on every connectivity
// broadcast. Connectivity is assumed until the first broadcast says
// otherwise.
type broadcastStrategy struct {
	onUpdate  func()
	connected atomic.Bool
}

func newBroadcastStrategy(onUpdate func()) *broadcastStrategy {
	s := &broadcastStrategy{onUpdate: onUpdate}
	s.connected.Store(true)
	return s
}

func (s *broadcastStrategy) name() string { return StrategyBroadcast }

func (s *broadcastStrategy) subscribe(h Host) error {
	return h.RegisterReceiver(s)
}

func (s *broadcastStrategy) unsubscribe(h Host) error {
	return h.UnregisterReceiver(s)
}

func (s *broadcastStrategy) isConnected() bool {
	return s.connected.Load()
}

func (s *broadcastStrategy) OnReceive(h Host, in Intent) {
	if in.Action != ActionConnectivityChange {
		return
	}
	info, ok := h.ActiveNetwork()
	s.connected.Store(ok && info.Available)
	s.onUpdate()
}
