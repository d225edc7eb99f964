//go:build android && !cgo

package netutil

// Without cgo the device API level cannot be queried.
func platformLevel() int {
	return LevelUnknown
}
