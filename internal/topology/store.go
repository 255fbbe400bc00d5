package topology

import (
	"sort"
	"sync"
)

// Store keeps known hosts.
// Switches and links are not cached: they are queried from
// the directories at the moment of computation.
type Store struct {
	sync.RWMutex
	hosts    map[string]Host
	switches SwitchDirectory
	links    LinkDirectory
}

func NewStore(sd SwitchDirectory, ld LinkDirectory) *Store {
	return &Store{
		hosts:    make(map[string]Host),
		switches: sd,
		links:    ld,
	}
}

// UpsertHost inserts or replaces the host record.
// Hosts without an IPv4 address cannot be routed to and are not stored.
func (s *Store) UpsertHost(h Host) bool {
	if !h.Routable() {
		return false
	}

	s.Lock()
	defer s.Unlock()

	s.hosts[h.DeviceID] = h
	return true
}

// RemoveHost deletes the host record and returns it, if it was present
func (s *Store) RemoveHost(deviceID string) (Host, bool) {
	s.Lock()
	defer s.Unlock()

	h, ok := s.hosts[deviceID]
	if ok {
		delete(s.hosts, deviceID)
	}
	return h, ok
}

func (s *Store) Host(deviceID string) (Host, bool) {
	s.RLock()
	defer s.RUnlock()

	h, ok := s.hosts[deviceID]
	return h, ok
}

// Hosts returns a snapshot of known hosts ordered by device id
func (s *Store) Hosts() []Host {
	s.RLock()
	rv := make([]Host, 0, len(s.hosts))
	for _, h := range s.hosts {
		rv = append(rv, h)
	}
	s.RUnlock()

	sort.Slice(rv, func(i, j int) bool {
		return rv[i].DeviceID < rv[j].DeviceID
	})
	return rv
}

func (s *Store) Count() int {
	s.RLock()
	defer s.RUnlock()

	return len(s.hosts)
}

// Switches returns the live switch set, ordered by id
func (s *Store) Switches() []SwitchID {
	if s.switches == nil {
		return nil
	}

	rv := append([]SwitchID(nil), s.switches.Switches()...)
	sort.Slice(rv, func(i, j int) bool {
		return rv[i] < rv[j]
	})
	return rv
}

// Links returns the live link set, deduplicated to undirected edges
func (s *Store) Links() []Link {
	if s.links == nil {
		return nil
	}
	return Dedup(s.links.Links())
}
