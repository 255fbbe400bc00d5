package dispatcher

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	descEvents = prometheus.NewDesc(
		"l3router_topology_events_total",
		"Topology events handled",
		[]string{"event"}, nil,
	)
	descFailures = prometheus.NewDesc(
		"l3router_topology_event_failures_total",
		"Topology events whose route synchronization failed",
		[]string{"event"}, nil,
	)
	descQueue = prometheus.NewDesc(
		"l3router_topology_event_queue",
		"Topology events waiting in the queue",
		nil, nil,
	)
)

// Per event series appear on first event, so descriptors are listed explicitly
func (d *Dispatcher) Describe(ch chan<- *prometheus.Desc) {
	ch <- descEvents
	ch <- descFailures
	ch <- descQueue
}

func (d *Dispatcher) Collect(ch chan<- prometheus.Metric) {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()

	for kind, count := range d.events {
		ch <- prometheus.MustNewConstMetric(descEvents, prometheus.CounterValue, float64(count), kind)
	}
	for kind, count := range d.failures {
		ch <- prometheus.MustNewConstMetric(descFailures, prometheus.CounterValue, float64(count), kind)
	}
	ch <- prometheus.MustNewConstMetric(descQueue, prometheus.GaugeValue, float64(len(d.queue)))
}
