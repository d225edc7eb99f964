package main

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/iamcalledrob/netutil"
	"github.com/iamcalledrob/netutil/internal/config"
	"github.com/iamcalledrob/netutil/internal/logger"
)

// daemon owns the host and monitor built from the current configuration
// and rebuilds them when the configuration changes.
type daemon struct {
	newHost  func(...netutil.HostOption) (netutil.Host, error)
	onChange func(netutil.Status)

	mu      sync.Mutex
	host    netutil.Host
	monitor *netutil.Monitor
}

func newDaemon(onChange func(netutil.Status)) *daemon {
	if onChange == nil {
		onChange = func(netutil.Status) {}
	}
	return &daemon{
		newHost:  netutil.NewHost,
		onChange: onChange,
		monitor:  netutil.NewMonitor(),
	}
}

// apply tears down the current registration, if any, and registers a new
// monitor configured from cfg.
func (d *daemon) apply(cfg config.Config) error {
	opts := []netutil.HostOption{netutil.WithPollInterval(cfg.PollInterval())}
	if cfg.ForcePolling {
		opts = append(opts, netutil.WithPolling())
	}

	host, err := d.newHost(opts...)
	if err != nil {
		return fmt.Errorf("create host: %w", err)
	}

	mon := netutil.NewMonitor(netutil.WithStrategy(cfg.MonitorStrategy()))
	mon.OnChange(func(st netutil.Status) {
		logger.WithFields(logrus.Fields{
			"available": st.Available,
			"kind":      st.Kind,
		}).Info("network status changed")
		d.onChange(st)
	})
	if err := mon.Register(host); err != nil {
		return multierr.Append(err, host.Close())
	}

	d.mu.Lock()
	oldHost, oldMon := d.host, d.monitor
	d.host, d.monitor = host, mon
	d.mu.Unlock()

	if oldHost != nil {
		oldMon.Unregister(oldHost)
		if err := oldHost.Close(); err != nil {
			logger.WithError(err).Debug("closing previous host")
		}
	}

	st := mon.Current()
	logger.WithFields(logrus.Fields{
		"strategy":  mon.Strategy(),
		"available": st.Available,
		"kind":      st.Kind,
	}).Info("network monitor ready")
	return nil
}

func (d *daemon) close() {
	d.mu.Lock()
	host, mon := d.host, d.monitor
	d.host = nil
	d.mu.Unlock()

	if host == nil {
		return
	}
	mon.Unregister(host)
	if err := host.Close(); err != nil {
		logger.WithError(err).Debug("closing host")
	}
}

func (d *daemon) current() *netutil.Monitor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.monitor
}

func (d *daemon) Current() netutil.Status { return d.current().Current() }
func (d *daemon) Strategy() string        { return d.current().Strategy() }
