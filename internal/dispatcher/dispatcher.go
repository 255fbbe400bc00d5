// dispatcher package is the entry point of topology notifications.
// It mutates the host store and triggers route synchronization
// with the scope the change requires: one host or the whole network.
// Every event is handled under one mutex, so a store mutation and
// its synchronization are atomic relative to other events.
package dispatcher

import (
	"errors"
	"fmt"
	"sync"

	"github.com/SyntropyNet/syntropy-l3router/internal/logger"
	"github.com/SyntropyNet/syntropy-l3router/internal/topology"
	"github.com/SyntropyNet/syntropy-l3router/pkg/slock"
)

const (
	pkgName = "Dispatcher. "
	cmd     = "TOPOLOGY_DISPATCHER"
)

var ErrNotQueued = errors.New("event was not queued")

// HostStore keeps known hosts. Implemented by topology.Store.
type HostStore interface {
	UpsertHost(h topology.Host) bool
	RemoveHost(deviceID string) (topology.Host, bool)
	Host(deviceID string) (topology.Host, bool)
}

// Synchronizer installs routing rules. Implemented by router.Router.
type Synchronizer interface {
	SyncHost(h topology.Host) error
	ClearHost(h topology.Host) error
	SyncAll() error
}

type Dispatcher struct {
	slock.AtomicServiceLock
	mu     sync.Mutex
	hosts  HostStore
	router Synchronizer
	queue  chan Event

	statsMu  sync.Mutex // counters only, never held while handling
	events   map[string]uint64
	failures map[string]uint64
}

func New(hosts HostStore, s Synchronizer, queueSize int) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		hosts:    hosts,
		router:   s,
		queue:    make(chan Event, queueSize),
		events:   make(map[string]uint64),
		failures: make(map[string]uint64),
	}
}

func (d *Dispatcher) Name() string {
	return cmd
}

// Handle processes one event synchronously.
// Errors of the flow rule service are returned to the caller.
func (d *Dispatcher) Handle(ev Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var err error
	switch e := ev.(type) {
	case HostAdded:
		err = d.hostAdded(e.Host)
	case HostIPChanged:
		err = d.hostIPChanged(e.Host)
	case HostRemoved:
		err = d.hostRemoved(e.DeviceID)
	case HostMoved:
		err = d.hostMoved(e.Host)
	case SwitchAdded:
		logger.Info().Printf("%s Switch s%d added\n", pkgName, e.Switch)
		err = d.router.SyncAll()
	case SwitchRemoved:
		logger.Info().Printf("%s Switch s%d removed\n", pkgName, e.Switch)
		err = d.router.SyncAll()
	case LinksUpdated:
		err = d.linksUpdated(e.Updates)
	case HostVLANChanged:
		logger.Debug().Println(pkgName, "Ignoring VLAN change of", e.DeviceID)
	case SwitchActivated:
		logger.Debug().Printf("%s Switch s%d activated\n", pkgName, e.Switch)
	case SwitchChanged:
		logger.Debug().Printf("%s Switch s%d changed\n", pkgName, e.Switch)
	case SwitchPortChanged:
		logger.Debug().Println(pkgName, "Switch port", e)
	default:
		return fmt.Errorf("unsupported event %T", ev)
	}

	d.count(ev.Kind(), err)
	if err != nil {
		return fmt.Errorf("%s: %w", ev.Kind(), err)
	}
	return nil
}

func (d *Dispatcher) count(kind string, err error) {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()

	d.events[kind]++
	if err != nil {
		d.failures[kind]++
	}
}

func (d *Dispatcher) OnHostAdded(h topology.Host) error {
	return d.Handle(HostAdded{Host: h})
}

func (d *Dispatcher) OnHostRemoved(deviceID string) error {
	return d.Handle(HostRemoved{DeviceID: deviceID})
}

func (d *Dispatcher) OnHostMoved(h topology.Host) error {
	return d.Handle(HostMoved{Host: h})
}

func (d *Dispatcher) OnHostIPChanged(h topology.Host) error {
	return d.Handle(HostIPChanged{Host: h})
}

func (d *Dispatcher) OnHostVLANChanged(deviceID string, vlan uint16) error {
	return d.Handle(HostVLANChanged{DeviceID: deviceID, VLAN: vlan})
}

func (d *Dispatcher) OnSwitchAdded(sw topology.SwitchID) error {
	return d.Handle(SwitchAdded{Switch: sw})
}

func (d *Dispatcher) OnSwitchRemoved(sw topology.SwitchID) error {
	return d.Handle(SwitchRemoved{Switch: sw})
}

func (d *Dispatcher) OnLinksUpdated(updates []topology.LinkUpdate) error {
	return d.Handle(LinksUpdated{Updates: updates})
}

// OnLinkUpdated is a single link variant of OnLinksUpdated
func (d *Dispatcher) OnLinkUpdated(u topology.LinkUpdate) error {
	return d.OnLinksUpdated([]topology.LinkUpdate{u})
}
