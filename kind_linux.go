package netutil

import (
	"net"
	"os"
	"path/filepath"
	"strings"
)

var sysClassNet = "/sys/class/net"

// Modem interfaces on Android and most Linux distributions.
var cellularPrefixes = []string{"rmnet", "wwan", "ccmni", "ppp"}

func interfaceKind(ifc net.Interface) InterfaceKind {
	for _, p := range cellularPrefixes {
		if strings.HasPrefix(ifc.Name, p) {
			return InterfaceTypeCellular
		}
	}
	if _, err := os.Stat(filepath.Join(sysClassNet, ifc.Name, "wireless")); err == nil {
		return InterfaceTypeWifi
	}
	if _, err := os.Stat(filepath.Join(sysClassNet, ifc.Name, "phy80211")); err == nil {
		return InterfaceTypeWifi
	}
	// ARPHRD_ETHER
	if b, err := os.ReadFile(filepath.Join(sysClassNet, ifc.Name, "type")); err == nil &&
		strings.TrimSpace(string(b)) == "1" {
		return InterfaceTypeWired
	}
	return InterfaceTypeUnknown
}
