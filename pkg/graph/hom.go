package graph

import (
	"sort"

	"github.com/mandelsoft/regraph/pkg/utils"
)

// Hom is a homomorphism between two graphs, represented as data: the
// mapping itself, carried independently of any live graph reference, so
// that homomorphisms can be composed, stored, and reasoned about without
// methods on Graph.
type Hom struct {
	Map map[NodeID]NodeID
}

// NewHom builds and validates a homomorphism dom -> cod from mapping: it
// must be total over dom's nodes, preserve every edge, and preserve every
// attribute by subsumption.
func NewHom(dom, cod *Graph, mapping map[NodeID]NodeID) (*Hom, error) {
	for _, n := range dom.Nodes() {
		target, ok := mapping[n]
		if !ok {
			return nil, newHomErr("build", "mapping is not total: node %q has no image", n)
		}
		if !cod.HasNode(target) {
			return nil, newHomErr("build", "image %q of node %q does not exist in codomain", target, n)
		}
		ok, err := dom.NodeAttrs(n).Subsumes(cod.NodeAttrs(target))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, newHomErr("build", "attributes of node %q are not subsumed by image %q", n, target)
		}
	}
	for _, e := range dom.Edges() {
		hu, hv := mapping[e.From], mapping[e.To]
		if !cod.HasEdge(hu, hv) {
			return nil, newHomErr("build", "edge (%q,%q) has no image edge (%q,%q) in codomain", e.From, e.To, hu, hv)
		}
		ok, err := e.Attrs.Subsumes(cod.EdgeAttrs(hu, hv))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, newHomErr("build", "attributes of edge (%q,%q) are not subsumed by image edge", e.From, e.To)
		}
	}
	m := make(map[NodeID]NodeID, len(mapping))
	for k, v := range mapping {
		m[k] = v
	}
	return &Hom{Map: m}, nil
}

// Compose returns g∘f (apply f, then g), failing if f's images are not all
// in g's domain.
func Compose(f, g *Hom) (*Hom, error) {
	out := make(map[NodeID]NodeID, len(f.Map))
	for src, mid := range f.Map {
		dst, ok := g.Map[mid]
		if !ok {
			return nil, newHomErr("compose", "node %q maps to %q, which is outside the second homomorphism's domain", src, mid)
		}
		out[src] = dst
	}
	return &Hom{Map: out}, nil
}

// Image returns the image of nodes under h, in deterministic order,
// without duplicates.
func (h *Hom) Image(nodes []NodeID) []NodeID {
	seen := map[NodeID]struct{}{}
	for _, n := range nodes {
		if img, ok := h.Map[n]; ok {
			seen[img] = struct{}{}
		}
	}
	return utils.OrderedMapKeys(seen)
}

// Preimage returns every domain node whose image lies in targets, in
// deterministic order.
func (h *Hom) Preimage(targets []NodeID) []NodeID {
	want := map[NodeID]struct{}{}
	for _, t := range targets {
		want[t] = struct{}{}
	}
	seen := map[NodeID]struct{}{}
	for src, img := range h.Map {
		if _, ok := want[img]; ok {
			seen[src] = struct{}{}
		}
	}
	return utils.OrderedMapKeys(seen)
}

// Fiber returns every domain node mapping to y under h, in deterministic
// order — the preimage of a single element, used to detect clone/merge
// classes (|fiber| >= 2).
func (h *Hom) Fiber(y NodeID) []NodeID {
	var out []NodeID
	for src, img := range h.Map {
		if img == y {
			out = append(out, src)
		}
	}
	sort.Strings(out)
	return out
}
