//go:build darwin && cgo

package netutil

/*
#cgo CFLAGS: -x objective-c -Wno-incompatible-pointer-types
#cgo LDFLAGS: -framework Foundation -framework Network
#import <Foundation/Foundation.h>
#import <Network/Network.h>
#include <string.h>

typedef struct {
	uint32_t index;
	int      type;
	char     name[32];
} path_iface;

static int path_interfaces(nw_path_t path, path_iface *out, int max) {
	__block int n = 0;
	nw_path_enumerate_interfaces(path, ^bool(nw_interface_t iface) {
		if (n >= max) {
			return false;
		}
		out[n].index = nw_interface_get_index(iface);
		out[n].type = (int)nw_interface_get_type(iface);
		strlcpy(out[n].name, nw_interface_get_name(iface), sizeof(out[n].name));
		n++;
		return true;
	});
	return n;
}

extern void invoke_path_update(uintptr_t hnd, nw_path_t path);
static void set_update_handler(nw_path_monitor_t monitor, uintptr_t cb_hnd) {
	nw_path_monitor_set_update_handler(monitor, ^(nw_path_t path) {
		nw_retain(path);
		invoke_path_update(cb_hnd, path);
		nw_release(path);
	});
}

extern void invoke_path_cancel(uintptr_t hnd);
static void set_cancel_handler(nw_path_monitor_t monitor, uintptr_t cb_hnd) {
	nw_path_monitor_set_cancel_handler(monitor, ^{
		invoke_path_cancel(cb_hnd);
	});
}
*/
import "C"
import (
	"fmt"
	"runtime/cgo"
	"sync"
	"time"
	"unsafe"

	"github.com/iamcalledrob/netutil/internal/logger"
)

const (
	maxPathInterfaces = 16
	// The first path update normally arrives near-instantaneously.
	firstPathTimeout = 2 * time.Second
)

// NewHost returns the native host for this platform, backed by the Network
// framework's path monitor.
func NewHost(opts ...HostOption) (Host, error) {
	o := defaultHostOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.forcePoll {
		return newPollHost(o), nil
	}
	return newPathHost(o)
}

type pathHost struct {
	*dispatcher

	mon C.nw_path_monitor_t

	rcvd     chan struct{}
	rcvdOnce sync.Once
	stopOnce sync.Once
}

func newPathHost(o hostOptions) (*pathHost, error) {
	mon := C.nw_path_monitor_create()
	if mon == nil {
		return nil, fmt.Errorf("nw_path_monitor_create failed")
	}
	C.nw_retain(unsafe.Pointer(mon))

	h := &pathHost{
		mon:  mon,
		rcvd: make(chan struct{}),
	}
	h.dispatcher = newDispatcher(h, o.resolvedLevel())

	// The initial update won't be fired if the queue isn't set.
	// Using the main queue results in deadlock--don't do it!
	C.nw_path_monitor_set_queue(mon, C.dispatch_get_global_queue(C.QOS_CLASS_DEFAULT, 0))

	hnd := cgo.NewHandle(func(path C.nw_path_t) {
		h.update(pathSnapshot(path))
		h.rcvdOnce.Do(func() { close(h.rcvd) })
	})
	C.set_update_handler(mon, C.uintptr_t(hnd))
	C.set_cancel_handler(mon, C.uintptr_t(hnd))
	C.nw_path_monitor_start(mon)

	select {
	case <-h.rcvd:
	case <-time.After(firstPathTimeout):
		logger.Warn("no initial network path received")
	}
	return h, nil
}

func (h *pathHost) Close() error {
	h.stopOnce.Do(func() {
		C.nw_path_monitor_cancel(h.mon)
		C.nw_release(unsafe.Pointer(h.mon))
		h.dispatcher.close()
	})
	return nil
}

func pathSnapshot(path C.nw_path_t) []NetworkInfo {
	s := C.nw_path_get_status(path)
	satisfied := s == C.nw_path_status_satisfied || s == C.nw_path_status_satisfiable
	// Tethering: interface type may be Wifi or Wired, but is ultimately Cellular.
	expensive := bool(C.nw_path_is_expensive(path))

	var ifaces [maxPathInterfaces]C.path_iface
	n := int(C.path_interfaces(path, &ifaces[0], C.int(maxPathInterfaces)))

	out := make([]NetworkInfo, 0, n)
	for i := 0; i < n; i++ {
		ifc := ifaces[i]
		kind := pathInterfaceKind(C.nw_interface_type_t(ifc._type))
		if expensive {
			kind = InterfaceTypeCellular
		}
		out = append(out, NetworkInfo{
			Network: Network{
				Index: int(ifc.index),
				Name:  C.GoString(&ifc.name[0]),
			},
			Kind:      kind,
			Available: satisfied,
		})
	}
	return out
}

func pathInterfaceKind(t C.nw_interface_type_t) InterfaceKind {
	switch t {
	case C.nw_interface_type_cellular:
		return InterfaceTypeCellular
	case C.nw_interface_type_wifi:
		return InterfaceTypeWifi
	case C.nw_interface_type_wired:
		return InterfaceTypeWired
	}
	return InterfaceTypeUnknown
}

//export invoke_path_update
func invoke_path_update(hnd C.uintptr_t, path C.nw_path_t) {
	cgo.Handle(hnd).Value().(func(C.nw_path_t))(path)
}

//export invoke_path_cancel
func invoke_path_cancel(hnd C.uintptr_t) {
	cgo.Handle(hnd).Delete()
}
