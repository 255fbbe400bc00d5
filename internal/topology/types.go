// topology package keeps the routing view of the network:
// known hosts, and the live switch and link sets queried from discovery.
package topology

import (
	"fmt"
	"net/netip"
)

// SwitchID is a switch datapath id.
// Zero is reserved by link discovery for the host side of a link.
type SwitchID uint64

// Port is a switch port number
type Port uint32

type Endpoint struct {
	Switch SwitchID
	Port   Port
}

func (e Endpoint) String() string {
	if e.Switch == 0 {
		return "host"
	}
	return fmt.Sprintf("s%d:%d", e.Switch, e.Port)
}

// Host is an end device known by the router.
// A host is routable only with a valid IPv4 address.
type Host struct {
	DeviceID   string
	IP         netip.Addr
	Attachment Endpoint
	Attached   bool
}

func (h Host) Routable() bool {
	return h.IP.IsValid() && h.IP.Is4()
}

func (h Host) IsAttached() bool {
	return h.Attached && h.Attachment.Switch != 0
}

func (h Host) String() string {
	if h.IsAttached() {
		return fmt.Sprintf("%s(%s)@%s", h.DeviceID, h.IP, h.Attachment)
	}
	return fmt.Sprintf("%s(%s)@detached", h.DeviceID, h.IP)
}

// SwitchDirectory returns currently active switches.
// Implemented by the switch management collaborator.
type SwitchDirectory interface {
	Switches() []SwitchID
}

// LinkDirectory returns currently active directed links.
// Reverse duplicates are expected.
type LinkDirectory interface {
	Links() []Link
}
