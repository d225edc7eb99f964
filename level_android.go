//go:build android && cgo

package netutil

// #include <android/api-level.h>
import "C"

import "sync"

var (
	apiLevel     int
	apiLevelOnce sync.Once
)

// platformLevel returns the API level of the device we're actually running
// on, or -1 on failure. Equivalent to Java's Build.VERSION.SDK_INT.
func platformLevel() int {
	apiLevelOnce.Do(func() {
		apiLevel = int(C.android_get_device_api_level())
	})
	return apiLevel
}
