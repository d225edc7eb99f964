package netutil

import "sync"

// callbackStrategy tracks the set of networks the host reported available.
type callbackStrategy struct {
	onUpdate func()

	mu       sync.Mutex
	networks map[Network]struct{}
}

func newCallbackStrategy(onUpdate func()) *callbackStrategy {
	return &callbackStrategy{
		onUpdate: onUpdate,
		networks: make(map[Network]struct{}),
	}
}

func (s *callbackStrategy) name() string { return StrategyCallback }

func (s *callbackStrategy) subscribe(h Host) error {
	return h.RegisterNetworkCallback(s)
}

func (s *callbackStrategy) unsubscribe(h Host) error {
	return h.UnregisterNetworkCallback(s)
}

func (s *callbackStrategy) isConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.networks) > 0
}

func (s *callbackStrategy) OnAvailable(n Network) {
	s.mu.Lock()
	s.networks[n] = struct{}{}
	s.mu.Unlock()
	s.onUpdate()
}

func (s *callbackStrategy) OnLost(n Network) {
	s.mu.Lock()
	delete(s.networks, n)
	s.mu.Unlock()
	s.onUpdate()
}
