package router

import (
	"fmt"

	"github.com/SyntropyNet/syntropy-l3router/internal/flowrule"
	"github.com/SyntropyNet/syntropy-l3router/internal/logger"
	"github.com/SyntropyNet/syntropy-l3router/internal/spt"
	"github.com/SyntropyNet/syntropy-l3router/internal/topology"
)

func (r *Router) syncHost(h topology.Host, switches []topology.SwitchID, links []topology.Link) error {
	if !h.Routable() {
		return nil
	}
	if !h.IsAttached() {
		return r.clearHost(h, switches)
	}

	r.stats.hostSyncs++

	tree := spt.Compute(h.Attachment.Switch, switches, links)
	r.trees[h.DeviceID] = tree
	if !tree.Valid() {
		// Switch left before the host was detached. Nothing can reach it now.
		logger.Debug().Println(pkgName, h, "attachment switch is not live")
		return nil
	}

	for _, sw := range switches {
		hop, ok := tree.Hop(sw)
		if !ok {
			continue
		}
		if err := r.install(sw, h, hop.Port); err != nil {
			return err
		}
	}

	// Last hop off the attachment switch onto the host access port
	return r.install(h.Attachment.Switch, h, h.Attachment.Port)
}

func (r *Router) clearHost(h topology.Host, switches []topology.SwitchID) error {
	delete(r.trees, h.DeviceID)
	if !h.Routable() {
		return nil
	}

	r.stats.clears++
	for _, sw := range switches {
		if err := r.remove(sw, h); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) install(sw topology.SwitchID, h topology.Host, port topology.Port) error {
	err := r.rules.InstallRule(sw, r.table, r.priority,
		flowrule.MatchIPv4Dst(h.IP), flowrule.Action{OutPort: port})
	if err != nil {
		r.stats.failures++
		return fmt.Errorf("install route to %s on s%d: %w", h.IP, sw, err)
	}
	r.stats.installs++
	return nil
}

func (r *Router) remove(sw topology.SwitchID, h topology.Host) error {
	err := r.rules.RemoveRules(sw, r.table, flowrule.MatchIPv4Dst(h.IP))
	if err != nil {
		r.stats.failures++
		return fmt.Errorf("remove routes to %s on s%d: %w", h.IP, sw, err)
	}
	r.stats.removals++
	return nil
}

func (r *Router) Dump() {
	r.Lock()
	defer r.Unlock()

	logger.Debug().Printf("%s table=%d priority=%d hosts=%d\n",
		pkgName, r.table, r.priority, len(r.trees))
	for id, tree := range r.trees {
		logger.Debug().Println(pkgName, id, tree)
		for _, sw := range r.topo.Switches() {
			if path := tree.Path(sw); len(path) > 1 {
				logger.Debug().Println(pkgName, "   ", id, "path", path)
			}
		}
	}
}
