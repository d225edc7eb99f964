package netutil

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	events  []string
	intents int
}

func (r *recorder) OnAvailable(n Network) { r.add("+" + n.String()) }
func (r *recorder) OnLost(n Network)      { r.add("-" + n.String()) }

func (r *recorder) OnReceive(_ Host, in Intent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if in.Action == ActionConnectivityChange {
		r.intents++
	}
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) snapshot() ([]string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...), r.intents
}

// staticSnapshot is a snapshot source tests can change between polls.
type staticSnapshot struct {
	mu    sync.Mutex
	infos []NetworkInfo
	err   error
}

func (s *staticSnapshot) set(infos ...NetworkInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.infos = infos
}

func (s *staticSnapshot) get() ([]NetworkInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]NetworkInfo(nil), s.infos...), nil
}

func newTestPollHost(t *testing.T, src *staticSnapshot, level int) (*pollHost, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	o := defaultHostOptions()
	for _, opt := range []HostOption{WithClock(mock), WithPollInterval(time.Second), WithLevel(level)} {
		opt(&o)
	}
	o.snapshot = src.get
	h := newPollHost(o)
	t.Cleanup(func() { _ = h.Close() })
	return h, mock
}

func TestDispatcherDiff(t *testing.T) {
	src := &staticSnapshot{}
	src.set(NetworkInfo{Network: eth0, Available: true})
	h, _ := newTestPollHost(t, src, LevelNetworkCallback)

	rec := &recorder{}
	require.NoError(t, h.RegisterNetworkCallback(rec))
	require.NoError(t, h.RegisterReceiver(rec))
	events, intents := rec.snapshot()
	assert.Equal(t, []string{"+eth0#2"}, events, "current networks are delivered on registration")
	assert.Equal(t, 1, intents, "sticky broadcast on registration")

	h.update([]NetworkInfo{
		{Network: eth0, Available: false},
		{Network: wlan0, Available: true},
	})
	events, intents = rec.snapshot()
	assert.Equal(t, []string{"+eth0#2", "+wlan0#3", "-eth0#2"}, events, "new networks before lost ones")
	assert.Equal(t, 2, intents)

	// Identical snapshot: nothing to deliver.
	h.update([]NetworkInfo{
		{Network: wlan0, Available: true},
		{Network: eth0, Available: false},
	})
	events, intents = rec.snapshot()
	assert.Len(t, events, 3)
	assert.Equal(t, 2, intents)

	active, ok := h.ActiveNetwork()
	require.True(t, ok)
	assert.Equal(t, wlan0, active.Network)
}

func TestDispatcherRegistrationErrors(t *testing.T) {
	h, _ := newTestPollHost(t, &staticSnapshot{}, LevelNetworkCallback)
	rec := &recorder{}

	assert.ErrorIs(t, h.UnregisterNetworkCallback(rec), ErrNotRegistered)
	assert.ErrorIs(t, h.UnregisterReceiver(rec), ErrNotRegistered)

	require.NoError(t, h.RegisterNetworkCallback(rec))
	assert.ErrorIs(t, h.RegisterNetworkCallback(rec), ErrAlreadyRegistered)
	require.NoError(t, h.RegisterReceiver(rec))
	assert.ErrorIs(t, h.RegisterReceiver(rec), ErrAlreadyRegistered)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
	assert.ErrorIs(t, h.RegisterNetworkCallback(&recorder{}), ErrHostClosed)
	assert.ErrorIs(t, h.RegisterReceiver(&recorder{}), ErrHostClosed)
	assert.ErrorIs(t, h.UnregisterNetworkCallback(rec), ErrNotRegistered, "close drops registrations")
}

func TestActiveNetwork(t *testing.T) {
	tests := []struct {
		name   string
		infos  []NetworkInfo
		want   Network
		wantOK bool
	}{
		{name: "empty"},
		{
			name:   "first available wins",
			infos:  []NetworkInfo{{Network: eth0}, {Network: wlan0, Available: true}},
			want:   wlan0,
			wantOK: true,
		},
		{
			name:   "falls back to first up network",
			infos:  []NetworkInfo{{Network: eth0}, {Network: wlan0}},
			want:   eth0,
			wantOK: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := activeNetwork(tt.infos)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.Network)
		})
	}
}

func TestPollHostDrivesMonitor(t *testing.T) {
	src := &staticSnapshot{}
	src.set(NetworkInfo{Network: eth0, Kind: InterfaceTypeWired, Available: true})
	h, mock := newTestPollHost(t, src, LevelNetworkCallback)

	m := NewMonitor()
	changes := make(chan Status, 4)
	m.OnChange(func(s Status) { changes <- s })
	require.NoError(t, m.Register(h))
	assert.Equal(t, Status{Available: true, Kind: InterfaceTypeWired}, m.Current())

	src.set()
	mock.Add(time.Second)
	select {
	case s := <-changes:
		assert.False(t, s.Available)
	case <-time.After(time.Second):
		t.Fatal("no change after poll")
	}
	assert.False(t, m.IsAvailable())

	m.Unregister(h)
	assert.True(t, m.IsAvailable())
}

func TestPollHostHandoverKeepsAvailability(t *testing.T) {
	src := &staticSnapshot{}
	src.set(NetworkInfo{Network: eth0, Kind: InterfaceTypeWired, Available: true})
	h, _ := newTestPollHost(t, src, LevelNetworkCallback)

	m := NewMonitor()
	var mu sync.Mutex
	var changes []Status
	m.OnChange(func(s Status) {
		mu.Lock()
		changes = append(changes, s)
		mu.Unlock()
		assert.True(t, s.Available, "availability must not dip during a handover")
	})
	require.NoError(t, m.Register(h))

	// eth0 goes down and wlan0 comes up in the same snapshot.
	h.update([]NetworkInfo{
		{Network: eth0, Kind: InterfaceTypeWired, Available: false},
		{Network: wlan0, Kind: InterfaceTypeWifi, Available: true},
	})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{{Available: true, Kind: InterfaceTypeWifi}}, changes)
	assert.True(t, m.IsAvailable())
}

func TestPollHostBroadcastStrategy(t *testing.T) {
	src := &staticSnapshot{}
	h, mock := newTestPollHost(t, src, 16)

	m := NewMonitor()
	require.NoError(t, m.Register(h))
	assert.Equal(t, StrategyBroadcast, m.Strategy())
	assert.False(t, m.IsAvailable(), "no active network")

	src.set(NetworkInfo{Network: wlan0, Kind: InterfaceTypeWifi, Available: true})
	mock.Add(time.Second)
	require.Eventually(t, m.IsAvailable, time.Second, 5*time.Millisecond)
	assert.Equal(t, InterfaceTypeWifi, m.Current().Kind)
}

func TestPollHostSnapshotError(t *testing.T) {
	src := &staticSnapshot{}
	src.set(NetworkInfo{Network: eth0, Available: true})
	h, mock := newTestPollHost(t, src, LevelNetworkCallback)

	m := NewMonitor()
	require.NoError(t, m.Register(h))

	src.mu.Lock()
	src.err = assert.AnError
	src.mu.Unlock()
	mock.Add(time.Second)
	mock.Add(time.Second)

	// A failed snapshot keeps the last known state.
	assert.True(t, m.IsAvailable())
	_, ok := h.ActiveNetwork()
	assert.True(t, ok)
}
