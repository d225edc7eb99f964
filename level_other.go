//go:build !android

package netutil

// Desktop and server platforms all deliver per-network notifications.
func platformLevel() int {
	return LevelNetworkCallback
}
