package discovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"

	"github.com/SyntropyNet/syntropy-l3router/internal/dispatcher"
	"github.com/SyntropyNet/syntropy-l3router/internal/topology"
	"github.com/SyntropyNet/syntropy-l3router/pkg/common"
)

var ErrUnknownMessage = errors.New("unknown message type")

type message struct {
	common.MessageHeader
	Data json.RawMessage `json:"data"`
}

type switchEntry struct {
	Switch uint64 `json:"dpid"`
	Port   uint32 `json:"port,omitempty"`
	Up     bool   `json:"up,omitempty"`
}

type hostEntry struct {
	DeviceID string `json:"device_id"`
	IP       string `json:"ipv4,omitempty"`
	Switch   uint64 `json:"dpid,omitempty"`
	Port     uint32 `json:"port,omitempty"`
	VLAN     uint16 `json:"vlan,omitempty"`
}

type linkEntry struct {
	SrcSwitch uint64 `json:"src_dpid"`
	SrcPort   uint32 `json:"src_port"`
	DstSwitch uint64 `json:"dst_dpid"`
	DstPort   uint32 `json:"dst_port"`
	Removed   bool   `json:"removed,omitempty"`
}

func (e *hostEntry) asHost() (topology.Host, error) {
	h := topology.Host{
		DeviceID: e.DeviceID,
		Attachment: topology.Endpoint{
			Switch: topology.SwitchID(e.Switch),
			Port:   topology.Port(e.Port),
		},
		Attached: e.Switch != 0,
	}
	if e.DeviceID == "" {
		return h, fmt.Errorf("missing device id")
	}

	// Address may be not resolved yet
	if e.IP != "" {
		addr, err := netip.ParseAddr(e.IP)
		if err != nil {
			return h, err
		}
		h.IP = addr
	}
	return h, nil
}

func (e *linkEntry) asLinkUpdate() topology.LinkUpdate {
	lu := topology.LinkUpdate{
		Link: topology.Link{
			Src: topology.Endpoint{Switch: topology.SwitchID(e.SrcSwitch), Port: topology.Port(e.SrcPort)},
			Dst: topology.Endpoint{Switch: topology.SwitchID(e.DstSwitch), Port: topology.Port(e.DstPort)},
		},
		Operation: topology.LinkUpdated,
	}
	if e.Removed {
		lu.Operation = topology.LinkRemoved
	}
	return lu
}

// Decode parses a feed message into a topology event
func Decode(raw []byte) (dispatcher.Event, error) {
	var msg message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, err
	}

	switch msg.MsgType {
	case dispatcher.KindSwitchAdded, dispatcher.KindSwitchRemoved, dispatcher.KindSwitchActivated,
		dispatcher.KindSwitchChanged, dispatcher.KindSwitchPortChanged:
		return decodeSwitch(msg)

	case dispatcher.KindHostAdded, dispatcher.KindHostRemoved, dispatcher.KindHostMoved,
		dispatcher.KindHostIPChanged, dispatcher.KindHostVLANChanged:
		return decodeHost(msg)

	case dispatcher.KindLinksUpdated:
		var entries []linkEntry
		if err := json.Unmarshal(msg.Data, &entries); err != nil {
			return nil, fmt.Errorf("%s: %w", msg.MsgType, err)
		}
		ev := dispatcher.LinksUpdated{}
		for i := range entries {
			ev.Updates = append(ev.Updates, entries[i].asLinkUpdate())
		}
		return ev, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessage, msg.MsgType)
	}
}

func decodeSwitch(msg message) (dispatcher.Event, error) {
	var e switchEntry
	if err := json.Unmarshal(msg.Data, &e); err != nil {
		return nil, fmt.Errorf("%s: %w", msg.MsgType, err)
	}
	if e.Switch == 0 {
		return nil, fmt.Errorf("%s: missing dpid", msg.MsgType)
	}

	sw := topology.SwitchID(e.Switch)
	switch msg.MsgType {
	case dispatcher.KindSwitchAdded:
		return dispatcher.SwitchAdded{Switch: sw}, nil
	case dispatcher.KindSwitchRemoved:
		return dispatcher.SwitchRemoved{Switch: sw}, nil
	case dispatcher.KindSwitchActivated:
		return dispatcher.SwitchActivated{Switch: sw}, nil
	case dispatcher.KindSwitchChanged:
		return dispatcher.SwitchChanged{Switch: sw}, nil
	default:
		return dispatcher.SwitchPortChanged{Switch: sw, Port: topology.Port(e.Port), Up: e.Up}, nil
	}
}

func decodeHost(msg message) (dispatcher.Event, error) {
	var e hostEntry
	if err := json.Unmarshal(msg.Data, &e); err != nil {
		return nil, fmt.Errorf("%s: %w", msg.MsgType, err)
	}
	h, err := e.asHost()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", msg.MsgType, err)
	}

	switch msg.MsgType {
	case dispatcher.KindHostAdded:
		return dispatcher.HostAdded{Host: h}, nil
	case dispatcher.KindHostRemoved:
		return dispatcher.HostRemoved{DeviceID: h.DeviceID}, nil
	case dispatcher.KindHostMoved:
		return dispatcher.HostMoved{Host: h}, nil
	case dispatcher.KindHostIPChanged:
		return dispatcher.HostIPChanged{Host: h}, nil
	default:
		return dispatcher.HostVLANChanged{DeviceID: h.DeviceID, VLAN: e.VLAN}, nil
	}
}
