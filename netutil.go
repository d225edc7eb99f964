// Package netutil reports whether the device has a usable network.
//
// A Monitor subscribes to a Host, the platform's connectivity notification
// channel, using one of two strategies picked from the host's level: per
// network callbacks where the platform provides them, connectivity
// broadcasts otherwise. The package-level functions operate on a process
// wide Monitor.
//
//	host, err := netutil.NewHost()
//	if err != nil { ... }
//	defer host.Close()
//
//	netutil.Register(host)
//	defer netutil.Unregister(host)
//
//	if !netutil.IsAvailable() { ... }
package netutil

var defaultMonitor = NewMonitor()

// Register subscribes the default monitor to h.
func Register(h Host) error {
	return defaultMonitor.Register(h)
}

// Unregister unsubscribes the default monitor from h.
func Unregister(h Host) {
	defaultMonitor.Unregister(h)
}

// IsAvailable reports the default monitor's availability, true when it is
// not registered.
func IsAvailable() bool {
	return defaultMonitor.IsAvailable()
}

// Current returns the default monitor's status.
func Current() Status {
	return defaultMonitor.Current()
}

// OnChange sets the default monitor's change callback.
func OnChange(cb func(Status)) {
	defaultMonitor.OnChange(cb)
}
