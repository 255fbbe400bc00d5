package topology

import "sync"

// Directory is a switch and link directory fed by discovery notifications.
// It implements both SwitchDirectory and LinkDirectory.
type Directory struct {
	sync.RWMutex
	switches map[SwitchID]struct{}
	links    []Link
}

func NewDirectory() *Directory {
	return &Directory{
		switches: make(map[SwitchID]struct{}),
	}
}

func (d *Directory) AddSwitch(id SwitchID) {
	d.Lock()
	defer d.Unlock()

	d.switches[id] = struct{}{}
}

// RemoveSwitch forgets the switch together with all its links
func (d *Directory) RemoveSwitch(id SwitchID) {
	d.Lock()
	defer d.Unlock()

	delete(d.switches, id)

	kept := d.links[:0]
	for _, l := range d.links {
		if l.Src.Switch != id && l.Dst.Switch != id {
			kept = append(kept, l)
		}
	}
	d.links = kept
}

func (d *Directory) HasSwitch(id SwitchID) bool {
	d.RLock()
	defer d.RUnlock()

	_, ok := d.switches[id]
	return ok
}

// AddLink stores a directed link. Exact duplicates are ignored,
// reverse records are kept as reported.
func (d *Directory) AddLink(l Link) {
	d.Lock()
	defer d.Unlock()

	for _, e := range d.links {
		if e == l {
			return
		}
	}
	d.links = append(d.links, l)
}

// RemoveLink deletes the directed record and its reverse
func (d *Directory) RemoveLink(l Link) {
	d.Lock()
	defer d.Unlock()

	rev := l.Reverse()
	kept := d.links[:0]
	for _, e := range d.links {
		if e != l && e != rev {
			kept = append(kept, e)
		}
	}
	d.links = kept
}

// Apply updates the directory with link discovery results.
// Host side links carry no switch adjacency and are skipped.
func (d *Directory) Apply(updates ...LinkUpdate) {
	for _, u := range updates {
		if !u.Link.IsSwitchLink() {
			continue
		}
		switch u.Operation {
		case LinkRemoved:
			d.RemoveLink(u.Link)
		default:
			d.AddLink(u.Link)
		}
	}
}

func (d *Directory) Switches() []SwitchID {
	d.RLock()
	defer d.RUnlock()

	rv := make([]SwitchID, 0, len(d.switches))
	for id := range d.switches {
		rv = append(rv, id)
	}
	return rv
}

func (d *Directory) Links() []Link {
	d.RLock()
	defer d.RUnlock()

	return append([]Link(nil), d.links...)
}
