//go:build !linux

package netutil

import "net"

// Interface kinds are only resolved from sysfs; other platforms report
// the kind through their native host where they can.
func interfaceKind(net.Interface) InterfaceKind {
	return InterfaceTypeUnknown
}
