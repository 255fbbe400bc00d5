// netcfg is a stateless helper to setup host routes through netlink.
// All functions work on a netlink handle, so the caller selects the
// network namespace they are applied in.
package netcfg

import (
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

var ErrLinkNotFound = errors.New("interface not found")

// hostPrefix converts an address to its /32 (or /128) network
func hostPrefix(addr netip.Addr) *net.IPNet {
	return &net.IPNet{
		IP:   addr.AsSlice(),
		Mask: net.CIDRMask(addr.BitLen(), addr.BitLen()),
	}
}

func family(addr netip.Addr) int {
	if addr.Is4() {
		return netlink.FAMILY_V4
	}
	return netlink.FAMILY_V6
}

// LinkIndex returns index of interface ifname
func LinkIndex(h *netlink.Handle, ifname string) (int, error) {
	iface, err := h.LinkByName(ifname)
	if err != nil {
		return 0, fmt.Errorf("%w: %s (%s)", ErrLinkNotFound, ifname, err)
	}
	return iface.Attrs().Index, nil
}

// RouteReplace installs or replaces a directly connected host route
// to dst out of ifname in the routing table
func RouteReplace(h *netlink.Handle, ifname string, dst netip.Addr, table, metric int) error {
	idx, err := LinkIndex(h, ifname)
	if err != nil {
		return err
	}

	route := netlink.Route{
		LinkIndex: idx,
		Dst:       hostPrefix(dst),
		Scope:     netlink.SCOPE_LINK,
		Table:     table,
		Priority:  metric,
	}

	err = h.RouteReplace(&route)
	if err != nil {
		return fmt.Errorf("route replace %s dev %s table %d: %s", dst, ifname, table, err)
	}
	return nil
}

// RouteList returns host routes to dst in the routing table
func RouteList(h *netlink.Handle, dst netip.Addr, table int) ([]netlink.Route, error) {
	filter := netlink.Route{
		Dst:   hostPrefix(dst),
		Table: table,
	}
	return h.RouteListFiltered(family(dst), &filter, netlink.RT_FILTER_DST|netlink.RT_FILTER_TABLE)
}

// RouteDel deletes all routes to dst in the routing table.
// Missing routes are not an error.
func RouteDel(h *netlink.Handle, dst netip.Addr, table int) error {
	routes, err := RouteList(h, dst, table)
	if err != nil {
		return fmt.Errorf("route list %s table %d: %s", dst, table, err)
	}

	for idx := range routes {
		err = h.RouteDel(&routes[idx])
		if err != nil && !errors.Is(err, unix.ESRCH) {
			return fmt.Errorf("route del %s table %d: %s", dst, table, err)
		}
	}
	return nil
}
