package netutil

import (
	"fmt"
	"net"
)

// interfaceSnapshot lists the host's non-loopback interfaces that are up.
func interfaceSnapshot() ([]NetworkInfo, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}

	out := make([]NetworkInfo, 0, len(ifaces))
	for _, ifc := range ifaces {
		if ifc.Flags&net.FlagLoopback != 0 || ifc.Flags&net.FlagUp == 0 {
			continue
		}
		info := NetworkInfo{
			Network: Network{Index: ifc.Index, Name: ifc.Name},
			Kind:    interfaceKind(ifc),
		}
		if ifc.Flags&net.FlagRunning != 0 {
			// An interface can vanish between listing and querying; treat it
			// as unavailable rather than failing the snapshot.
			addrs, err := ifc.Addrs()
			if err == nil {
				info.Available = hasRoutableAddr(addrs)
			}
		}
		out = append(out, info)
	}
	return out, nil
}

func hasRoutableAddr(addrs []net.Addr) bool {
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip != nil && ip.IsGlobalUnicast() {
			return true
		}
	}
	return false
}
