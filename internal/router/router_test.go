package router

import (
	"errors"
	"net/netip"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/SyntropyNet/syntropy-l3router/internal/flowrule"
	"github.com/SyntropyNet/syntropy-l3router/internal/topology"
)

func link(s1 topology.SwitchID, p1 topology.Port, s2 topology.SwitchID, p2 topology.Port) topology.Link {
	return topology.Link{
		Src: topology.Endpoint{Switch: s1, Port: p1},
		Dst: topology.Endpoint{Switch: s2, Port: p2},
	}
}

func host(id, ip string, sw topology.SwitchID, port topology.Port) topology.Host {
	return topology.Host{
		DeviceID:   id,
		IP:         netip.MustParseAddr(ip),
		Attachment: topology.Endpoint{Switch: sw, Port: port},
		Attached:   sw != 0,
	}
}

// line builds S1 -- S2 -- S3: S1:1<->S2:1, S2:2<->S3:1, reported in both directions
func line() (*topology.Directory, *topology.Store) {
	dir := topology.NewDirectory()
	for sw := topology.SwitchID(1); sw <= 3; sw++ {
		dir.AddSwitch(sw)
	}
	dir.AddLink(link(1, 1, 2, 1))
	dir.AddLink(link(2, 1, 1, 1))
	dir.AddLink(link(2, 2, 3, 1))
	dir.AddLink(link(3, 1, 2, 2))

	return dir, topology.NewStore(dir, dir)
}

// routes returns installed output ports toward ip, by switch
func routes(tbl *flowrule.Table, ip string) map[topology.SwitchID]topology.Port {
	rv := make(map[topology.SwitchID]topology.Port)
	for _, r := range tbl.Rules() {
		if r.Match.IPv4Dst == netip.MustParseAddr(ip) {
			rv[r.Switch] = r.Action.OutPort
		}
	}
	return rv
}

func TestSyncHostLine(t *testing.T) {
	_, store := line()
	tbl := flowrule.NewTable()
	r := New(store, tbl, 3, 100)

	a := host("a", "10.0.0.1", 1, 5)
	store.UpsertHost(a)
	if err := r.SyncHost(a); err != nil {
		t.Fatalf("SyncHost failed: %v", err)
	}

	expected := map[topology.SwitchID]topology.Port{1: 5, 2: 1, 3: 1}
	if diff := cmp.Diff(expected, routes(tbl, "10.0.0.1")); diff != "" {
		t.Errorf("Routes mismatch (-want +got):\n%s", diff)
	}

	for _, rule := range tbl.Rules() {
		if rule.Table != 3 || rule.Priority != 100 {
			t.Errorf("Rule installed with wrong table or priority: %s", rule)
		}
		if err := rule.Match.Validate(); err != nil {
			t.Errorf("Rule installed with invalid match: %v", err)
		}
	}
}

func TestSyncHostIdempotent(t *testing.T) {
	_, store := line()
	tbl := flowrule.NewTable()
	r := New(store, tbl, 0, flowrule.DefaultPriority)

	a := host("a", "10.0.0.1", 2, 9)
	store.UpsertHost(a)

	r.SyncHost(a)
	first := tbl.Rules()
	r.SyncHost(a)
	second := tbl.Rules()

	if diff := cmp.Diff(first, second, cmp.Comparer(func(x, y netip.Addr) bool { return x == y })); diff != "" {
		t.Errorf("Second sync changed rules (-first +second):\n%s", diff)
	}
	if tbl.Count() != 3 {
		t.Errorf("Expected one rule per switch, got %d", tbl.Count())
	}
}

func TestMoveHost(t *testing.T) {
	_, store := line()
	tbl := flowrule.NewTable()
	r := New(store, tbl, 0, flowrule.DefaultPriority)

	a := host("a", "10.0.0.1", 1, 5)
	store.UpsertHost(a)
	r.SyncHost(a)

	moved := host("a", "10.0.0.1", 3, 7)
	store.UpsertHost(moved)
	if err := r.ClearHost(a); err != nil {
		t.Fatalf("ClearHost failed: %v", err)
	}
	if err := r.SyncHost(moved); err != nil {
		t.Fatalf("SyncHost failed: %v", err)
	}

	expected := map[topology.SwitchID]topology.Port{1: 1, 2: 2, 3: 7}
	if diff := cmp.Diff(expected, routes(tbl, "10.0.0.1")); diff != "" {
		t.Errorf("Routes mismatch (-want +got):\n%s", diff)
	}
}

func TestClearHost(t *testing.T) {
	_, store := line()
	tbl := flowrule.NewTable()
	r := New(store, tbl, 0, flowrule.DefaultPriority)

	a := host("a", "10.0.0.1", 1, 5)
	b := host("b", "10.0.0.2", 3, 2)
	store.UpsertHost(a)
	store.UpsertHost(b)
	r.SyncHost(a)
	r.SyncHost(b)

	store.RemoveHost("a")
	if err := r.ClearHost(a); err != nil {
		t.Fatalf("ClearHost failed: %v", err)
	}

	if rv := routes(tbl, "10.0.0.1"); len(rv) != 0 {
		t.Errorf("Removed host still has rules %v", rv)
	}
	if rv := routes(tbl, "10.0.0.2"); len(rv) != 3 {
		t.Errorf("Other host rules were touched: %v", rv)
	}
	if _, ok := r.Tree("a"); ok {
		t.Error("Tree of removed host is kept")
	}
}

func TestSyncDetachedHost(t *testing.T) {
	_, store := line()
	tbl := flowrule.NewTable()
	r := New(store, tbl, 0, flowrule.DefaultPriority)

	a := host("a", "10.0.0.1", 1, 5)
	store.UpsertHost(a)
	r.SyncHost(a)

	a.Attached = false
	store.UpsertHost(a)
	if err := r.SyncHost(a); err != nil {
		t.Fatalf("SyncHost failed: %v", err)
	}
	if tbl.Count() != 0 {
		t.Errorf("Detached host still has rules: %v", tbl.Rules())
	}
}

func TestSwitchRemovedPartition(t *testing.T) {
	dir, store := line()
	tbl := flowrule.NewTable()
	r := New(store, tbl, 0, flowrule.DefaultPriority)

	a := host("a", "10.0.0.1", 1, 5)
	b := host("b", "10.0.0.3", 3, 4)
	store.UpsertHost(a)
	store.UpsertHost(b)
	if err := r.SyncAll(); err != nil {
		t.Fatalf("SyncAll failed: %v", err)
	}
	if tbl.Count() != 6 {
		t.Fatalf("Expected 6 rules before partition, got %v", tbl.Rules())
	}

	dir.RemoveSwitch(2)
	if err := r.SyncAll(); err != nil {
		t.Fatalf("SyncAll failed: %v", err)
	}

	s1 := routes(tbl, "10.0.0.3")
	if _, ok := s1[1]; ok {
		t.Errorf("S1 keeps a rule toward unreachable host: %v", s1)
	}
	if port, ok := s1[3]; !ok || port != 4 {
		t.Errorf("S3 lost its local host rule: %v", s1)
	}

	s3 := routes(tbl, "10.0.0.1")
	if _, ok := s3[3]; ok {
		t.Errorf("S3 keeps a rule toward unreachable host: %v", s3)
	}
	if port, ok := s3[1]; !ok || port != 5 {
		t.Errorf("S1 lost its local host rule: %v", s3)
	}
}

func TestSyncAllSkipsDetachedHosts(t *testing.T) {
	_, store := line()
	tbl := flowrule.NewTable()
	r := New(store, tbl, 0, flowrule.DefaultPriority)

	// stale rule of a detached host must be flushed
	tbl.InstallRule(2, 0, flowrule.DefaultPriority,
		flowrule.MatchIPv4Dst(netip.MustParseAddr("10.0.0.1")), flowrule.Action{OutPort: 9})

	store.UpsertHost(host("a", "10.0.0.1", 0, 0))
	store.UpsertHost(host("b", "10.0.0.2", 3, 2))
	store.UpsertHost(host("c", "10.0.0.3", 1, 6))

	if err := r.SyncAll(); err != nil {
		t.Fatalf("SyncAll failed: %v", err)
	}

	if rv := routes(tbl, "10.0.0.1"); len(rv) != 0 {
		t.Errorf("Detached host has rules %v", rv)
	}
	if rv := routes(tbl, "10.0.0.2"); len(rv) != 3 {
		t.Errorf("Host after detached one not synced: %v", rv)
	}
	if rv := routes(tbl, "10.0.0.3"); len(rv) != 3 {
		t.Errorf("Host after detached one not synced: %v", rv)
	}
}

func TestStaleAttachment(t *testing.T) {
	_, store := line()
	tbl := flowrule.NewTable()
	r := New(store, tbl, 0, flowrule.DefaultPriority)

	a := host("a", "10.0.0.1", 42, 1)
	store.UpsertHost(a)
	if err := r.SyncHost(a); err != nil {
		t.Fatalf("Stale attachment must not fail: %v", err)
	}
	if tbl.Count() != 0 {
		t.Errorf("Rules installed toward a dead switch: %v", tbl.Rules())
	}
}

var errRejected = errors.New("rejected")

type failingService struct {
	*flowrule.Table
	sw topology.SwitchID
}

func (fs *failingService) InstallRule(sw topology.SwitchID, table flowrule.TableID, priority uint16,
	match flowrule.Match, action flowrule.Action) error {
	if sw == fs.sw {
		return errRejected
	}
	return fs.Table.InstallRule(sw, table, priority, match, action)
}

func (fs *failingService) RemoveRules(sw topology.SwitchID, table flowrule.TableID, match flowrule.Match) error {
	if sw == fs.sw {
		return errRejected
	}
	return fs.Table.RemoveRules(sw, table, match)
}

func TestServiceFailure(t *testing.T) {
	_, store := line()
	fs := &failingService{Table: flowrule.NewTable(), sw: 2}
	r := New(store, fs, 0, flowrule.DefaultPriority)

	a := host("a", "10.0.0.1", 1, 5)
	store.UpsertHost(a)

	if err := r.SyncHost(a); !errors.Is(err, errRejected) {
		t.Errorf("SyncHost: expected collaborator error, got %v", err)
	}
	if err := r.ClearHost(a); !errors.Is(err, errRejected) {
		t.Errorf("ClearHost: expected collaborator error, got %v", err)
	}
	if err := r.SyncAll(); !errors.Is(err, errRejected) {
		t.Errorf("SyncAll: expected collaborator error, got %v", err)
	}

	expected := `
# HELP l3router_rule_command_failures_total Flow rule commands rejected by the flow rule service
# TYPE l3router_rule_command_failures_total counter
l3router_rule_command_failures_total 3
`
	err := testutil.CollectAndCompare(r, strings.NewReader(expected), "l3router_rule_command_failures_total")
	if err != nil {
		t.Error(err)
	}
}
