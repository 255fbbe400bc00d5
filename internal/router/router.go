// router package keeps switches forwarding rules in sync with the topology.
// For every known host it computes a shortest path tree toward the host's
// attachment switch and installs one IPv4 destination rule per reachable switch.
// Any change of the switch graph flushes and recomputes rules of all hosts.
package router

import (
	"sync"

	"github.com/SyntropyNet/syntropy-l3router/internal/flowrule"
	"github.com/SyntropyNet/syntropy-l3router/internal/spt"
	"github.com/SyntropyNet/syntropy-l3router/internal/topology"
)

const pkgName = "Router. "

// Topology is the read only view of the network used for path computation.
// Implemented by topology.Store.
type Topology interface {
	Hosts() []topology.Host
	Switches() []topology.SwitchID
	Links() []topology.Link
}

type stats struct {
	hostSyncs uint64
	fullSyncs uint64
	clears    uint64
	installs  uint64
	removals  uint64
	failures  uint64
}

type Router struct {
	sync.Mutex
	topo     Topology
	rules    flowrule.Service
	table    flowrule.TableID
	priority uint16
	trees    map[string]*spt.Tree // last computed tree, by device id
	stats    stats
}

func New(topo Topology, rules flowrule.Service, table flowrule.TableID, priority uint16) *Router {
	return &Router{
		topo:     topo,
		rules:    rules,
		table:    table,
		priority: priority,
		trees:    make(map[string]*spt.Tree),
	}
}

// SyncHost installs rules toward host h on every switch that can reach it.
// A host that is not attached has its rules removed instead.
func (r *Router) SyncHost(h topology.Host) error {
	r.Lock()
	defer r.Unlock()

	return r.syncHost(h, r.topo.Switches(), r.topo.Links())
}

// ClearHost removes rules matching host h address from every live switch
func (r *Router) ClearHost(h topology.Host) error {
	r.Lock()
	defer r.Unlock()

	return r.clearHost(h, r.topo.Switches())
}

// SyncAll flushes rules of all known hosts and installs them from scratch.
// Used when the switch graph changes, since any path may have changed.
func (r *Router) SyncAll() error {
	r.Lock()
	defer r.Unlock()

	r.stats.fullSyncs++

	hosts := r.topo.Hosts()
	switches := r.topo.Switches()
	links := r.topo.Links()

	for _, sw := range switches {
		for _, h := range hosts {
			if !h.Routable() {
				continue
			}
			if err := r.remove(sw, h); err != nil {
				return err
			}
		}
	}

	for _, h := range hosts {
		if !h.IsAttached() {
			delete(r.trees, h.DeviceID)
			continue
		}
		if err := r.syncHost(h, switches, links); err != nil {
			return err
		}
	}

	return nil
}

// Tree returns the last shortest path tree computed for a host
func (r *Router) Tree(deviceID string) (*spt.Tree, bool) {
	r.Lock()
	defer r.Unlock()

	t, ok := r.trees[deviceID]
	return t, ok
}
