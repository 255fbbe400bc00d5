package router

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	descSyncs = prometheus.NewDesc(
		"l3router_syncs_total",
		"Route synchronizations by scope",
		[]string{"scope"}, nil,
	)
	descCommands = prometheus.NewDesc(
		"l3router_rule_commands_total",
		"Flow rule commands issued to switches",
		[]string{"command"}, nil,
	)
	descFailures = prometheus.NewDesc(
		"l3router_rule_command_failures_total",
		"Flow rule commands rejected by the flow rule service",
		nil, nil,
	)
	descHosts = prometheus.NewDesc(
		"l3router_hosts",
		"Known routable hosts",
		nil, nil,
	)
	descRouted = prometheus.NewDesc(
		"l3router_routed_hosts",
		"Hosts with a computed shortest path tree",
		nil, nil,
	)
)

func (r *Router) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(r, ch)
}

func (r *Router) Collect(ch chan<- prometheus.Metric) {
	hosts := len(r.topo.Hosts())

	r.Lock()
	defer r.Unlock()

	ch <- prometheus.MustNewConstMetric(descSyncs, prometheus.CounterValue, float64(r.stats.hostSyncs), "host")
	ch <- prometheus.MustNewConstMetric(descSyncs, prometheus.CounterValue, float64(r.stats.fullSyncs), "all")
	ch <- prometheus.MustNewConstMetric(descSyncs, prometheus.CounterValue, float64(r.stats.clears), "clear")
	ch <- prometheus.MustNewConstMetric(descCommands, prometheus.CounterValue, float64(r.stats.installs), "install")
	ch <- prometheus.MustNewConstMetric(descCommands, prometheus.CounterValue, float64(r.stats.removals), "remove")
	ch <- prometheus.MustNewConstMetric(descFailures, prometheus.CounterValue, float64(r.stats.failures))
	ch <- prometheus.MustNewConstMetric(descHosts, prometheus.GaugeValue, float64(hosts))
	ch <- prometheus.MustNewConstMetric(descRouted, prometheus.GaugeValue, float64(len(r.trees)))
}
