// dataplane package programs forwarding rules as Linux host routes.
// Every switch is a network namespace (or the current one), a switch
// port is an interface named after the switch and port numbers.
package dataplane

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"

	"github.com/SyntropyNet/syntropy-l3router/internal/config"
	"github.com/SyntropyNet/syntropy-l3router/internal/flowrule"
	"github.com/SyntropyNet/syntropy-l3router/internal/logger"
	"github.com/SyntropyNet/syntropy-l3router/internal/topology"
	"github.com/SyntropyNet/syntropy-l3router/pkg/netcfg"
)

const pkgName = "Dataplane. "

var ErrNoInterface = errors.New("no interface for switch port")

// Kernel implements flowrule.Service on top of netlink.
// Rules that were programmed successfully are mirrored to a flow table.
type Kernel struct {
	sync.Mutex
	handles      map[topology.SwitchID]*netlink.Handle
	mirror       *flowrule.Table
	ifnameFormat string
	netnsFormat  string
}

func New(mirror *flowrule.Table) *Kernel {
	return &Kernel{
		handles:      make(map[topology.SwitchID]*netlink.Handle),
		mirror:       mirror,
		ifnameFormat: config.GetIfnameFormat(),
		netnsFormat:  config.GetNetnsFormat(),
	}
}

func (k *Kernel) ifname(sw topology.SwitchID, port topology.Port) string {
	return fmt.Sprintf(k.ifnameFormat, sw, port)
}

// namespace returns netns name of the switch, empty for the current namespace
func (k *Kernel) namespace(sw topology.SwitchID) string {
	if k.netnsFormat == "" {
		return ""
	}
	return fmt.Sprintf(k.netnsFormat, sw)
}

// Table 0 is the default table of the switch, main table in kernel terms
func routingTable(table flowrule.TableID) int {
	if table == 0 {
		return unix.RT_TABLE_MAIN
	}
	return int(table)
}

func (k *Kernel) handle(sw topology.SwitchID) (*netlink.Handle, error) {
	k.Lock()
	defer k.Unlock()

	if h, ok := k.handles[sw]; ok {
		return h, nil
	}

	var h *netlink.Handle
	var err error
	name := k.namespace(sw)
	if name == "" {
		h, err = netlink.NewHandle(unix.NETLINK_ROUTE)
	} else {
		var ns netns.NsHandle
		ns, err = netns.GetFromName(name)
		if err != nil {
			return nil, fmt.Errorf("s%d netns %s: %w", sw, name, err)
		}
		// handle keeps its own socket in the namespace
		defer ns.Close()
		h, err = netlink.NewHandleAt(ns, unix.NETLINK_ROUTE)
	}
	if err != nil {
		return nil, fmt.Errorf("s%d netlink: %w", sw, err)
	}

	k.handles[sw] = h
	return h, nil
}

func (k *Kernel) InstallRule(sw topology.SwitchID, table flowrule.TableID, priority uint16,
	match flowrule.Match, action flowrule.Action) error {
	if err := match.Validate(); err != nil {
		return err
	}

	h, err := k.handle(sw)
	if err != nil {
		return err
	}

	ifname := k.ifname(sw, action.OutPort)
	err = netcfg.RouteReplace(h, ifname, match.IPv4Dst, routingTable(table), int(priority))
	if errors.Is(err, netcfg.ErrLinkNotFound) {
		return fmt.Errorf("%w: s%d:%d (%s)", ErrNoInterface, sw, action.OutPort, ifname)
	}
	if err != nil {
		return err
	}

	return k.mirror.InstallRule(sw, table, priority, match, action)
}

func (k *Kernel) RemoveRules(sw topology.SwitchID, table flowrule.TableID, match flowrule.Match) error {
	if err := match.Validate(); err != nil {
		return err
	}

	h, err := k.handle(sw)
	if err != nil {
		return err
	}

	err = netcfg.RouteDel(h, match.IPv4Dst, routingTable(table))
	if err != nil {
		return err
	}

	return k.mirror.RemoveRules(sw, table, match)
}

// Close releases netlink sockets. Routes are left in place.
func (k *Kernel) Close() error {
	k.Lock()
	defer k.Unlock()

	for sw, h := range k.handles {
		h.Delete()
		delete(k.handles, sw)
	}
	logger.Debug().Println(pkgName, "netlink handles closed")
	return nil
}
