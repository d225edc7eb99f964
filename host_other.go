//go:build !linux && !(darwin && cgo)

package netutil

// NewHost returns a polling host; this platform has no native notification
// mechanism wired up.
func NewHost(opts ...HostOption) (Host, error) {
	o := defaultHostOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newPollHost(o), nil
}
