package dispatcher

import (
	"github.com/SyntropyNet/syntropy-l3router/internal/logger"
	"github.com/SyntropyNet/syntropy-l3router/internal/topology"
)

func (d *Dispatcher) hostAdded(h topology.Host) error {
	if !h.Routable() {
		logger.Debug().Println(pkgName, "Host", h.DeviceID, "has no IPv4 address yet")
		return nil
	}

	logger.Info().Println(pkgName, "Host added", h)
	// Re-added host may come with another address
	return d.hostIPChanged(h)
}

func (d *Dispatcher) hostIPChanged(h topology.Host) error {
	old, known := d.hosts.Host(h.DeviceID)

	if !h.Routable() {
		// address lost, host cannot be routed to anymore
		if !known {
			return nil
		}
		d.hosts.RemoveHost(h.DeviceID)
		logger.Info().Println(pkgName, "Host", h.DeviceID, "lost IPv4 address", old.IP)
		return d.router.ClearHost(old)
	}

	if known && old.IP != h.IP {
		logger.Info().Println(pkgName, "Host", h.DeviceID, "address changed", old.IP, "->", h.IP)
		if err := d.router.ClearHost(old); err != nil {
			return err
		}
	}

	d.hosts.UpsertHost(h)
	return d.router.SyncHost(h)
}

func (d *Dispatcher) hostRemoved(deviceID string) error {
	old, ok := d.hosts.RemoveHost(deviceID)
	if !ok {
		return nil
	}

	logger.Info().Println(pkgName, "Host", old, "is no longer attached")
	return d.router.ClearHost(old)
}

func (d *Dispatcher) hostMoved(h topology.Host) error {
	if !h.IsAttached() {
		return d.hostRemoved(h.DeviceID)
	}

	old, known := d.hosts.Host(h.DeviceID)
	if !h.Routable() && known {
		// move notifications may not carry the address
		h.IP = old.IP
	}
	if !d.hosts.UpsertHost(h) {
		logger.Debug().Println(pkgName, "Host", h.DeviceID, "moved, but has no IPv4 address")
		return nil
	}

	logger.Info().Printf("%s Host %s moved to %s\n", pkgName, h.IP, h.Attachment)

	if known {
		if err := d.router.ClearHost(old); err != nil {
			return err
		}
	}
	return d.router.SyncHost(h)
}

func (d *Dispatcher) linksUpdated(updates []topology.LinkUpdate) error {
	for _, u := range updates {
		logger.Info().Println(pkgName, u)
	}
	return d.router.SyncAll()
}
