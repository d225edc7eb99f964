package netutil

// Strategy names.
const (
	StrategyAuto      = ""
	StrategyCallback  = "callback"
	StrategyBroadcast = "broadcast"
)

// strategy subscribes to one of the host's notification mechanisms and
// caches the connectivity it reports.
type strategy interface {
	subscribe(Host) error
	unsubscribe(Host) error
	isConnected() bool
	name() string
}

// newStrategy picks the notification mechanism for a platform level. A
// non-empty force selects the mechanism regardless of level.
func newStrategy(level int, force string, onUpdate func()) strategy {
	if onUpdate == nil {
		onUpdate = func() {}
	}
	switch force {
	case StrategyCallback:
		return newCallbackStrategy(onUpdate)
	case StrategyBroadcast:
		return newBroadcastStrategy(onUpdate)
	}
	if level >= LevelNetworkCallback {
		return newCallbackStrategy(onUpdate)
	}
	return newBroadcastStrategy(onUpdate)
}
