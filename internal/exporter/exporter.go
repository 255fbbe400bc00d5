// exporter serves router metrics in prometheus format
// and the currently installed forwarding rules as JSON
package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SyntropyNet/syntropy-l3router/internal/flowrule"
	"github.com/SyntropyNet/syntropy-l3router/internal/logger"
)

const (
	pkgName = "PrometheusExporter. "
	cmd     = "EXPORTER"
)

// RuleLister returns installed rules. Implemented by flowrule.Table.
type RuleLister interface {
	Rules() []flowrule.Rule
}

type ruleEntry struct {
	Switch   uint64 `json:"dpid"`
	Table    uint8  `json:"table"`
	Priority uint16 `json:"priority"`
	IPv4Dst  string `json:"ipv4_dst"`
	OutPort  uint32 `json:"out_port"`
}

type Exporter struct {
	port  uint16
	reg   *prometheus.Registry
	rules RuleLister
}

func New(port uint16, rules RuleLister, collectors ...prometheus.Collector) (*Exporter, error) {
	obj := Exporter{
		port:  port,
		reg:   prometheus.NewRegistry(),
		rules: rules,
	}

	for _, c := range collectors {
		err := obj.reg.Register(c)
		if err != nil {
			return nil, err
		}
	}

	return &obj, nil
}

func (obj *Exporter) Name() string {
	return cmd
}

func (obj *Exporter) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(obj.reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/rules", obj.serveRules)
	return mux
}

func (obj *Exporter) serveRules(w http.ResponseWriter, r *http.Request) {
	rules := obj.rules.Rules()
	entries := make([]ruleEntry, 0, len(rules))
	for _, rule := range rules {
		entries = append(entries, ruleEntry{
			Switch:   uint64(rule.Switch),
			Table:    uint8(rule.Table),
			Priority: rule.Priority,
			IPv4Dst:  rule.Match.IPv4Dst.String(),
			OutPort:  uint32(rule.Action.OutPort),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		logger.Warning().Println(pkgName, "rules encode:", err)
	}
}

func (obj *Exporter) Run(ctx context.Context) error {
	logger.Debug().Println(pkgName, "exporter starting on port", obj.port)
	srv := http.Server{
		Addr:         fmt.Sprintf(":%d", obj.port),
		Handler:      obj.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		err := srv.ListenAndServe()
		if err != http.ErrServerClosed {
			logger.Error().Println(pkgName, err)
		}
	}()

	go func() {
		<-ctx.Done()
		logger.Debug().Println(pkgName, "stopping", cmd)
		srv.Close()
	}()

	return nil
}
