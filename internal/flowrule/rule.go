// flowrule package describes forwarding rules issued to switches
// and the service contract of whoever installs them.
package flowrule

import (
	"errors"
	"fmt"
	"net/netip"

	"github.com/google/gopacket/layers"

	"github.com/SyntropyNet/syntropy-l3router/internal/topology"
)

// DefaultPriority is the priority of routing rules unless configured otherwise
const DefaultPriority = 1

var ErrInvalidMatch = errors.New("match is not an IPv4 destination")

type TableID uint8

// Match selects packets by EtherType and IPv4 destination address
type Match struct {
	EtherType layers.EthernetType
	IPv4Dst   netip.Addr
}

// MatchIPv4Dst is the only match used by the router:
// EtherType IPv4 and exact destination address.
func MatchIPv4Dst(addr netip.Addr) Match {
	return Match{
		EtherType: layers.EthernetTypeIPv4,
		IPv4Dst:   addr,
	}
}

func (m Match) Validate() error {
	if m.EtherType != layers.EthernetTypeIPv4 || !m.IPv4Dst.Is4() {
		return fmt.Errorf("%w: %s", ErrInvalidMatch, m)
	}
	return nil
}

func (m Match) String() string {
	return fmt.Sprintf("eth_type=%s,ipv4_dst=%s", m.EtherType, m.IPv4Dst)
}

// Action outputs a packet on a switch port
type Action struct {
	OutPort topology.Port
}

func (a Action) String() string {
	return fmt.Sprintf("output:%d", a.OutPort)
}

type Rule struct {
	Switch   topology.SwitchID
	Table    TableID
	Priority uint16
	Match    Match
	Action   Action
}

func (r Rule) String() string {
	return fmt.Sprintf("s%d table=%d priority=%d %s -> %s",
		r.Switch, r.Table, r.Priority, r.Match, r.Action)
}

// Service installs and removes forwarding rules on switches.
// Install is an upsert keyed by (switch, table, match).
type Service interface {
	InstallRule(sw topology.SwitchID, table TableID, priority uint16, match Match, action Action) error
	RemoveRules(sw topology.SwitchID, table TableID, match Match) error
}
