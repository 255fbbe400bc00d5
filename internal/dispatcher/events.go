package dispatcher

import (
	"fmt"

	"github.com/SyntropyNet/syntropy-l3router/internal/topology"
)

// Event kinds. Discovery feed uses the same names as message types.
const (
	KindHostAdded         = "HOST_ADDED"
	KindHostRemoved       = "HOST_REMOVED"
	KindHostMoved         = "HOST_MOVED"
	KindHostIPChanged     = "HOST_IP_CHANGED"
	KindHostVLANChanged   = "HOST_VLAN_CHANGED"
	KindSwitchAdded       = "SWITCH_ADDED"
	KindSwitchRemoved     = "SWITCH_REMOVED"
	KindSwitchActivated   = "SWITCH_ACTIVATED"
	KindSwitchChanged     = "SWITCH_CHANGED"
	KindSwitchPortChanged = "SWITCH_PORT_CHANGED"
	KindLinksUpdated      = "LINKS_UPDATED"
)

// Event is a topology change notification
type Event interface {
	Kind() string
}

// HostAdded is sent when a host is first seen
type HostAdded struct {
	Host topology.Host
}

// HostRemoved is sent when a host is gone. Only the device id is used.
type HostRemoved struct {
	DeviceID string
}

// HostMoved carries the new attachment point of the host.
// Host.Attached is false when the host is no longer connected anywhere.
type HostMoved struct {
	Host topology.Host
}

type HostIPChanged struct {
	Host topology.Host
}

type HostVLANChanged struct {
	DeviceID string
	VLAN     uint16
}

type SwitchAdded struct {
	Switch topology.SwitchID
}

type SwitchRemoved struct {
	Switch topology.SwitchID
}

type SwitchActivated struct {
	Switch topology.SwitchID
}

type SwitchChanged struct {
	Switch topology.SwitchID
}

type SwitchPortChanged struct {
	Switch topology.SwitchID
	Port   topology.Port
	Up     bool
}

// LinksUpdated is a batch of link state changes
type LinksUpdated struct {
	Updates []topology.LinkUpdate
}

func (HostAdded) Kind() string         { return KindHostAdded }
func (HostRemoved) Kind() string       { return KindHostRemoved }
func (HostMoved) Kind() string         { return KindHostMoved }
func (HostIPChanged) Kind() string     { return KindHostIPChanged }
func (HostVLANChanged) Kind() string   { return KindHostVLANChanged }
func (SwitchAdded) Kind() string       { return KindSwitchAdded }
func (SwitchRemoved) Kind() string     { return KindSwitchRemoved }
func (SwitchActivated) Kind() string   { return KindSwitchActivated }
func (SwitchChanged) Kind() string     { return KindSwitchChanged }
func (SwitchPortChanged) Kind() string { return KindSwitchPortChanged }
func (LinksUpdated) Kind() string      { return KindLinksUpdated }

func (e SwitchPortChanged) String() string {
	state := "down"
	if e.Up {
		state = "up"
	}
	return fmt.Sprintf("s%d:%d %s", e.Switch, e.Port, state)
}
