// spt package computes shortest path trees over the switch graph.
// All links cost one hop.
package spt

import (
	"fmt"
	"strings"

	"github.com/SyntropyNet/syntropy-l3router/internal/topology"
)

// Hop describes how a switch forwards toward the tree root
type Hop struct {
	Port     topology.Port     // port on this switch facing Parent
	Parent   topology.SwitchID // next switch toward the root
	Distance int               // hops to the root
}

// Tree is a shortest path tree rooted at a destination switch.
// Switches unreachable from the root have no entry.
type Tree struct {
	Root topology.SwitchID
	hops map[topology.SwitchID]Hop
	ok   bool
}

// Compute builds the tree toward root from the given live switches
// and (deduplicated) links. Links with an endpoint outside the switch
// set are ignored. If root is not a live switch the tree is empty.
func Compute(root topology.SwitchID, switches []topology.SwitchID, links []topology.Link) *Tree {
	t := &Tree{
		Root: root,
		hops: make(map[topology.SwitchID]Hop),
	}

	live := make(map[topology.SwitchID]struct{}, len(switches))
	for _, sw := range switches {
		live[sw] = struct{}{}
	}
	if _, ok := live[root]; !ok {
		return t
	}
	t.ok = true

	edges := make([]topology.Link, 0, len(links))
	for _, l := range links {
		_, srcOk := live[l.Src.Switch]
		_, dstOk := live[l.Dst.Switch]
		if srcOk && dstOk && l.Src.Switch != l.Dst.Switch {
			edges = append(edges, l)
		}
	}

	// Missing key means infinite distance
	dist := map[topology.SwitchID]int{root: 0}

	relax := func(from, to topology.Endpoint) bool {
		d, ok := dist[from.Switch]
		if !ok {
			return false
		}
		if cur, ok := dist[to.Switch]; ok && cur <= d+1 {
			return false
		}
		dist[to.Switch] = d + 1
		t.hops[to.Switch] = Hop{
			Port:     to.Port,
			Parent:   from.Switch,
			Distance: d + 1,
		}
		return true
	}

	// |V|-1 passes are enough for unit weights, stop early once stable
	for pass := 0; pass < len(live); pass++ {
		changed := false
		for _, e := range edges {
			if relax(e.Src, e.Dst) {
				changed = true
			}
			if relax(e.Dst, e.Src) {
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	return t
}

// NextHops returns the output port toward root for every other reachable switch
func NextHops(root topology.SwitchID, switches []topology.SwitchID, links []topology.Link) map[topology.SwitchID]topology.Port {
	return Compute(root, switches, links).NextHops()
}

// Valid reports whether the root was a live switch
func (t *Tree) Valid() bool {
	return t.ok
}

func (t *Tree) NextHops() map[topology.SwitchID]topology.Port {
	rv := make(map[topology.SwitchID]topology.Port, len(t.hops))
	for sw, hop := range t.hops {
		rv[sw] = hop.Port
	}
	return rv
}

func (t *Tree) Hop(sw topology.SwitchID) (Hop, bool) {
	hop, ok := t.hops[sw]
	return hop, ok
}

// Distance returns hops count from sw to the root
func (t *Tree) Distance(sw topology.SwitchID) (int, bool) {
	if t.ok && sw == t.Root {
		return 0, true
	}
	hop, ok := t.hops[sw]
	return hop.Distance, ok
}

// Reachable reports whether sw can forward to the root
func (t *Tree) Reachable(sw topology.SwitchID) bool {
	_, ok := t.Distance(sw)
	return ok
}

// Path returns switches visited from sw to the root, both included
func (t *Tree) Path(sw topology.SwitchID) []topology.SwitchID {
	if !t.Reachable(sw) {
		return nil
	}

	path := []topology.SwitchID{sw}
	for sw != t.Root {
		sw = t.hops[sw].Parent
		path = append(path, sw)
	}
	return path
}

func (t *Tree) Count() int {
	return len(t.hops)
}

func (t *Tree) String() string {
	if !t.ok {
		return fmt.Sprintf("s%d: not a live switch", t.Root)
	}

	sb := strings.Builder{}
	fmt.Fprintf(&sb, "s%d:", t.Root)
	for sw, hop := range t.hops {
		fmt.Fprintf(&sb, " s%d->%d(%d)", sw, hop.Port, hop.Distance)
	}
	return sb.String()
}
