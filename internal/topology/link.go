package topology

import "fmt"

// Link is a switch-to-switch adjacency as reported by link discovery.
// Reported links are directed, routing treats them as undirected.
type Link struct {
	Src Endpoint
	Dst Endpoint
}

func (l Link) Reverse() Link {
	return Link{Src: l.Dst, Dst: l.Src}
}

func (l Link) IsSwitchLink() bool {
	return l.Src.Switch != 0 && l.Dst.Switch != 0
}

func (l Link) String() string {
	return fmt.Sprintf("%s -> %s", l.Src, l.Dst)
}

// Link state change operations
const (
	LinkUpdated = iota
	LinkRemoved
)

// LinkUpdate is one link state change record delivered by link discovery
type LinkUpdate struct {
	Link      Link
	Operation int
}

func (lu LinkUpdate) String() string {
	op := "updated"
	if lu.Operation == LinkRemoved {
		op = "removed"
	}
	return fmt.Sprintf("Link %s %s", lu.Link, op)
}

// edge key is the unordered switch pair
type edgeKey struct {
	a, b SwitchID
}

func keyOf(l Link) edgeKey {
	if l.Src.Switch < l.Dst.Switch {
		return edgeKey{a: l.Src.Switch, b: l.Dst.Switch}
	}
	return edgeKey{a: l.Dst.Switch, b: l.Src.Switch}
}

// Dedup returns one link per unordered switch pair.
// The first reported record wins, so both ports of an edge
// always belong to the same physical link. Self loops and
// host side links are dropped.
func Dedup(links []Link) []Link {
	seen := make(map[edgeKey]struct{}, len(links))
	rv := make([]Link, 0, len(links))

	for _, l := range links {
		if !l.IsSwitchLink() || l.Src.Switch == l.Dst.Switch {
			continue
		}
		key := keyOf(l)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		rv = append(rv, l)
	}

	return rv
}
