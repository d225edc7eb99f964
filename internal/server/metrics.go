package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iamcalledrob/netutil"
)

const namespace = "netutil"

var strategies = []string{netutil.StrategyCallback, netutil.StrategyBroadcast}

type metrics struct {
	available    prometheus.Gauge
	strategyInfo *prometheus.GaugeVec
	changes      prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		available: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "network_available",
			Help:      "Whether a network was available at the last host notification (1) or not (0).",
		}),
		strategyInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "strategy_info",
			Help:      "Notification strategy in use; 1 for the active strategy.",
		}, []string{"strategy"}),
		changes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_changes_total",
			Help:      "Total number of network status changes observed.",
		}),
	}
	for _, c := range []prometheus.Collector{m.available, m.strategyInfo, m.changes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *metrics) observe(p statusPayload) {
	if p.Available {
		m.available.Set(1)
	} else {
		m.available.Set(0)
	}
	for _, s := range strategies {
		v := 0.0
		if s == p.Strategy {
			v = 1
		}
		m.strategyInfo.WithLabelValues(s).Set(v)
	}
}
