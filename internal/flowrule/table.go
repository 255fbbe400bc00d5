package flowrule

import (
	"net/netip"
	"sort"
	"strconv"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/SyntropyNet/syntropy-l3router/internal/logger"
	"github.com/SyntropyNet/syntropy-l3router/internal/topology"
)

const pkgName = "FlowTable. "

var addrComparer = cmp.Comparer(func(a, b netip.Addr) bool { return a == b })

type ruleKey struct {
	sw    topology.SwitchID
	table TableID
	match Match
}

// Table is an in-memory flow table of all switches.
// It is used as a dry-run dataplane and keeps the router's view of installed rules.
type Table struct {
	sync.RWMutex
	rules    map[ruleKey]Rule
	installs uint64
	changes  uint64
	removals uint64
}

func NewTable() *Table {
	return &Table{
		rules: make(map[ruleKey]Rule),
	}
}

func (t *Table) InstallRule(sw topology.SwitchID, table TableID, priority uint16, match Match, action Action) error {
	if err := match.Validate(); err != nil {
		return err
	}

	rule := Rule{
		Switch:   sw,
		Table:    table,
		Priority: priority,
		Match:    match,
		Action:   action,
	}
	key := ruleKey{sw: sw, table: table, match: match}

	t.Lock()
	defer t.Unlock()

	t.installs++
	old, ok := t.rules[key]
	if ok && cmp.Equal(old, rule, addrComparer) {
		// same rule already present
		return nil
	}

	t.changes++
	t.rules[key] = rule
	logger.Debug().Println(pkgName, "install", rule)
	return nil
}

func (t *Table) RemoveRules(sw topology.SwitchID, table TableID, match Match) error {
	if err := match.Validate(); err != nil {
		return err
	}

	key := ruleKey{sw: sw, table: table, match: match}

	t.Lock()
	defer t.Unlock()

	if rule, ok := t.rules[key]; ok {
		t.removals++
		delete(t.rules, key)
		logger.Debug().Println(pkgName, "remove", rule)
	}
	return nil
}

// Lookup returns the rule installed on sw for match
func (t *Table) Lookup(sw topology.SwitchID, table TableID, match Match) (Rule, bool) {
	t.RLock()
	defer t.RUnlock()

	rule, ok := t.rules[ruleKey{sw: sw, table: table, match: match}]
	return rule, ok
}

// Rules returns all installed rules ordered by switch, table and destination
func (t *Table) Rules() []Rule {
	t.RLock()
	rv := make([]Rule, 0, len(t.rules))
	for _, r := range t.rules {
		rv = append(rv, r)
	}
	t.RUnlock()

	sort.Slice(rv, func(i, j int) bool {
		if rv[i].Switch != rv[j].Switch {
			return rv[i].Switch < rv[j].Switch
		}
		if rv[i].Table != rv[j].Table {
			return rv[i].Table < rv[j].Table
		}
		return rv[i].Match.IPv4Dst.Less(rv[j].Match.IPv4Dst)
	})
	return rv
}

// SwitchRules returns rules installed on one switch
func (t *Table) SwitchRules(sw topology.SwitchID) []Rule {
	var rv []Rule
	for _, r := range t.Rules() {
		if r.Switch == sw {
			rv = append(rv, r)
		}
	}
	return rv
}

func (t *Table) Count() int {
	t.RLock()
	defer t.RUnlock()

	return len(t.rules)
}

func (t *Table) Dump() {
	for _, r := range t.Rules() {
		logger.Debug().Println(pkgName, r)
	}
}

var (
	descRules = prometheus.NewDesc(
		"l3router_flow_rules",
		"Forwarding rules currently installed on a switch",
		[]string{"switch"}, nil,
	)
	descInstalls = prometheus.NewDesc(
		"l3router_flow_rule_installs_total",
		"Install commands received, including unchanged upserts",
		nil, nil,
	)
	descChanges = prometheus.NewDesc(
		"l3router_flow_rule_changes_total",
		"Install commands that created or modified a rule",
		nil, nil,
	)
	descRemovals = prometheus.NewDesc(
		"l3router_flow_rule_removals_total",
		"Rules deleted from switches",
		nil, nil,
	)
)

func (t *Table) Describe(ch chan<- *prometheus.Desc) {
	ch <- descRules
	ch <- descInstalls
	ch <- descChanges
	ch <- descRemovals
}

func (t *Table) Collect(ch chan<- prometheus.Metric) {
	t.RLock()
	defer t.RUnlock()

	perSwitch := make(map[topology.SwitchID]int)
	for key := range t.rules {
		perSwitch[key.sw]++
	}
	for sw, count := range perSwitch {
		ch <- prometheus.MustNewConstMetric(descRules, prometheus.GaugeValue,
			float64(count), strconv.FormatUint(uint64(sw), 10))
	}

	ch <- prometheus.MustNewConstMetric(descInstalls, prometheus.CounterValue, float64(t.installs))
	ch <- prometheus.MustNewConstMetric(descChanges, prometheus.CounterValue, float64(t.changes))
	ch <- prometheus.MustNewConstMetric(descRemovals, prometheus.CounterValue, float64(t.removals))
}
