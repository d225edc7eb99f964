package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/iamcalledrob/netutil"
)

func main() {
	host, err := netutil.NewHost()
	if err != nil {
		fmt.Fprintf(os.Stderr, "netutil: %v\n", err)
		os.Exit(1)
	}
	defer host.Close()

	netutil.OnChange(func(s netutil.Status) {
		if s.Available {
			fmt.Printf("Network available (kind: %s)\n", s.Kind)
		} else {
			fmt.Printf("Network unavailable\n")
		}
	})

	if err := netutil.Register(host); err != nil {
		fmt.Fprintf(os.Stderr, "netutil: %v\n", err)
		os.Exit(1)
	}
	defer netutil.Unregister(host)

	fmt.Printf("Current status: %s\n", netutil.Current())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
}
