package netutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

// LevelNetworkCallback is the lowest platform level that delivers per-network
// availability callbacks. Hosts reporting a lower level only broadcast a
// generic connectivity change.
const LevelNetworkCallback = 21

// LevelUnknown is reported when the platform level cannot be determined.
const LevelUnknown = -1

// ActionConnectivityChange is the action of the intent hosts broadcast
// whenever connectivity may have changed.
const ActionConnectivityChange = "netutil.CONNECTIVITY_CHANGE"

var (
	ErrAlreadyRegistered = errors.New("netutil: already registered")
	ErrNotRegistered     = errors.New("netutil: not registered")
	ErrHostClosed        = errors.New("netutil: host closed")
)

// Network identifies a single host network.
type Network struct {
	Index int
	Name  string
}

func (n Network) String() string {
	return fmt.Sprintf("%s#%d", n.Name, n.Index)
}

// NetworkInfo describes a network as seen in the latest host snapshot.
type NetworkInfo struct {
	Network
	Kind InterfaceKind
	// Available is true if the link is running and has a routable address.
	Available bool
}

// Intent is a connectivity broadcast delivered to a Receiver.
type Intent struct {
	Action string
}

// NetworkCallback receives per-network availability notifications.
type NetworkCallback interface {
	OnAvailable(Network)
	OnLost(Network)
}

// Receiver receives connectivity broadcasts.
type Receiver interface {
	OnReceive(Host, Intent)
}

// Host is the platform's connectivity notification channel.
//
// Registering a NetworkCallback delivers OnAvailable for every network that
// is available at the time of registration. Registering a Receiver delivers
// one sticky ActionConnectivityChange intent. Notifications are delivered
// from the host's own goroutine.
type Host interface {
	// Level returns the platform API level.
	Level() int

	RegisterNetworkCallback(NetworkCallback) error
	UnregisterNetworkCallback(NetworkCallback) error

	RegisterReceiver(Receiver) error
	UnregisterReceiver(Receiver) error

	// ActiveNetwork returns the network the host would route through.
	ActiveNetwork() (NetworkInfo, bool)

	Close() error
}

type hostOptions struct {
	level        int
	levelSet     bool
	pollInterval time.Duration
	clock        clock.Clock
	forcePoll    bool
	snapshot     func() ([]NetworkInfo, error)
}

func defaultHostOptions() hostOptions {
	return hostOptions{
		pollInterval: 5 * time.Second,
		clock:        clock.New(),
		snapshot:     interfaceSnapshot,
	}
}

// HostOption configures NewHost.
type HostOption func(*hostOptions)

// WithLevel overrides the platform level reported by the host.
func WithLevel(level int) HostOption {
	return func(o *hostOptions) {
		o.level = level
		o.levelSet = true
	}
}

// WithPollInterval sets the snapshot interval of the polling host.
func WithPollInterval(d time.Duration) HostOption {
	return func(o *hostOptions) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithClock sets the clock driving the polling host.
func WithClock(c clock.Clock) HostOption {
	return func(o *hostOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithPolling makes NewHost use the polling host even where a native
// notification mechanism exists.
func WithPolling() HostOption {
	return func(o *hostOptions) {
		o.forcePoll = true
	}
}

func (o hostOptions) resolvedLevel() int {
	if o.levelSet {
		return o.level
	}
	return platformLevel()
}
