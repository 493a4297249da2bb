package graph_test

import (
	. "github.com/mandelsoft/goutils/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/regraph/pkg/attrset"
	"github.com/mandelsoft/regraph/pkg/graph"
)

func colorAttrs(c string) attrset.Map {
	return attrset.NewMap(map[string]attrset.Value{"color": attrset.NewFinite(c)})
}

var _ = Describe("node and edge primitives", func() {
	var g *graph.Graph

	BeforeEach(func() {
		g = graph.New()
	})

	It("adds and rejects duplicate nodes", func() {
		Expect(g.AddNode("a", nil)).To(Succeed())
		Expect(g.AddNode("a", nil)).To(HaveOccurred())
		Expect(g.HasNode("a")).To(BeTrue())
	})

	It("cascades edge removal when a node is removed", func() {
		MustBeSuccessful(g.AddNode("a", nil))
		MustBeSuccessful(g.AddNode("b", nil))
		MustBeSuccessful(g.AddEdge("a", "b", nil))
		Expect(g.RemoveNode("a")).To(Succeed())
		Expect(g.HasEdge("a", "b")).To(BeFalse())
	})

	It("rejects edges with missing endpoints or duplicates", func() {
		MustBeSuccessful(g.AddNode("a", nil))
		Expect(g.AddEdge("a", "missing", nil)).To(HaveOccurred())
		MustBeSuccessful(g.AddNode("b", nil))
		MustBeSuccessful(g.AddEdge("a", "b", nil))
		Expect(g.AddEdge("a", "b", nil)).To(HaveOccurred())
	})

	It("unions node attributes per key on add_node_attrs", func() {
		MustBeSuccessful(g.AddNode("a", colorAttrs("blue")))
		MustBeSuccessful(g.AddNodeAttrs("a", colorAttrs("red")))
		v := g.NodeAttrs("a")["color"]
		Expect(v.Contains("blue")).To(BeTrue())
		Expect(v.Contains("red")).To(BeTrue())
	})

	It("removes attributes per key on remove_node_attrs, erasing emptied keys", func() {
		MustBeSuccessful(g.AddNode("a", colorAttrs("blue")))
		MustBeSuccessful(g.RemoveNodeAttrs("a", colorAttrs("blue")))
		_, present := g.NodeAttrs("a")["color"]
		Expect(present).To(BeFalse())
	})
})

var _ = Describe("clone_node", func() {
	var g *graph.Graph

	BeforeEach(func() {
		g = graph.New()
		MustBeSuccessful(g.AddNode("1", nil))
		MustBeSuccessful(g.AddNode("2", nil))
		MustBeSuccessful(g.AddNode("3", nil))
		MustBeSuccessful(g.AddEdge("1", "2", nil))
		MustBeSuccessful(g.AddEdge("3", "2", nil))
	})

	It("duplicates every incident edge onto the clone", func() {
		clone := Must(g.CloneNode("2", ""))
		Expect(g.HasEdge("1", clone)).To(BeTrue())
		Expect(g.HasEdge("3", clone)).To(BeTrue())
		Expect(g.HasEdge("1", "2")).To(BeTrue())
		Expect(g.HasEdge("3", "2")).To(BeTrue())
	})

	It("mints a collision-free id when none is given", func() {
		clone := Must(g.CloneNode("2", ""))
		Expect(clone).NotTo(Equal("2"))
		Expect(g.HasNode(clone)).To(BeTrue())
	})

	It("turns a self-loop into four edges with duplicated attributes", func() {
		loopG := graph.New()
		MustBeSuccessful(loopG.AddNode("x", nil))
		MustBeSuccessful(loopG.AddEdge("x", "x", colorAttrs("blue")))
		clone := Must(loopG.CloneNode("x", "x2"))
		Expect(loopG.HasEdge("x", "x")).To(BeTrue())
		Expect(loopG.HasEdge("x", clone)).To(BeTrue())
		Expect(loopG.HasEdge(clone, "x")).To(BeTrue())
		Expect(loopG.HasEdge(clone, clone)).To(BeTrue())
		for _, e := range [][2]string{{"x", "x"}, {"x", clone}, {clone, "x"}, {clone, clone}} {
			Expect(loopG.EdgeAttrs(e[0], e[1])["color"].Contains("blue")).To(BeTrue())
		}
	})
})

var _ = Describe("merge_nodes", func() {
	It("is identity on a single-element set", func() {
		g := graph.New()
		MustBeSuccessful(g.AddNode("a", colorAttrs("blue")))
		id := Must(g.MergeNodes([]string{"a"}, ""))
		Expect(id).To(Equal("a"))
	})

	It("unions attributes and redirects incident edges, collapsing loops between members", func() {
		g := graph.New()
		MustBeSuccessful(g.AddNode("1", attrset.NewMap(map[string]attrset.Value{
			"color": attrset.NewFinite("blue"),
			"name":  attrset.NewFinite("alice"),
		})))
		MustBeSuccessful(g.AddNode("2", colorAttrs("blue")))
		MustBeSuccessful(g.AddNode("3", attrset.NewMap(map[string]attrset.Value{
			"color": attrset.NewFinite("red"),
			"name":  attrset.NewFinite("john"),
		})))
		MustBeSuccessful(g.AddEdge("1", "2", nil))
		MustBeSuccessful(g.AddEdge("3", "2", nil))

		merged := Must(g.MergeNodes([]string{"1", "3"}, "merged"))
		Expect(merged).To(Equal("merged"))
		Expect(g.HasNode("1")).To(BeFalse())
		Expect(g.HasNode("3")).To(BeFalse())
		Expect(g.HasEdge("merged", "2")).To(BeTrue())

		attrs := g.NodeAttrs("merged")
		Expect(attrs["color"].Contains("blue")).To(BeTrue())
		Expect(attrs["color"].Contains("red")).To(BeTrue())
		Expect(attrs["name"].Contains("alice")).To(BeTrue())
		Expect(attrs["name"].Contains("john")).To(BeTrue())
	})

	It("collapses a mutual edge between merged members into a single self-loop", func() {
		g := graph.New()
		MustBeSuccessful(g.AddNode("a", nil))
		MustBeSuccessful(g.AddNode("b", nil))
		MustBeSuccessful(g.AddEdge("a", "b", colorAttrs("blue")))
		merged := Must(g.MergeNodes([]string{"a", "b"}, "ab"))
		Expect(g.HasEdge(merged, merged)).To(BeTrue())
	})
})

var _ = Describe("relabel_node", func() {
	It("renames a node, preserving attributes and edges", func() {
		g := graph.New()
		MustBeSuccessful(g.AddNode("a", colorAttrs("blue")))
		MustBeSuccessful(g.AddNode("b", nil))
		MustBeSuccessful(g.AddEdge("a", "b", nil))
		MustBeSuccessful(g.RelabelNode("a", "a2"))
		Expect(g.HasNode("a")).To(BeFalse())
		Expect(g.HasNode("a2")).To(BeTrue())
		Expect(g.HasEdge("a2", "b")).To(BeTrue())
		Expect(g.NodeAttrs("a2")["color"].Contains("blue")).To(BeTrue())
	})
})

var _ = Describe("homomorphism", func() {
	It("builds successfully when totality, edges and attribute subsumption hold", func() {
		dom := graph.New()
		MustBeSuccessful(dom.AddNode("x", colorAttrs("blue")))
		MustBeSuccessful(dom.AddNode("y", nil))
		MustBeSuccessful(dom.AddEdge("x", "y", nil))

		cod := graph.New()
		MustBeSuccessful(cod.AddNode("X", attrset.NewMap(map[string]attrset.Value{
			"color": attrset.NewFinite("blue", "red"),
		})))
		MustBeSuccessful(cod.AddNode("Y", nil))
		MustBeSuccessful(cod.AddEdge("X", "Y", nil))

		h := Must(graph.NewHom(dom, cod, map[string]string{"x": "X", "y": "Y"}))
		Expect(h.Map["x"]).To(Equal("X"))
	})

	It("rejects a mapping that is not total", func() {
		dom := graph.New()
		MustBeSuccessful(dom.AddNode("x", nil))
		MustBeSuccessful(dom.AddNode("y", nil))
		cod := graph.New()
		MustBeSuccessful(cod.AddNode("X", nil))
		_, err := graph.NewHom(dom, cod, map[string]string{"x": "X"})
		Expect(err).To(HaveOccurred())
	})

	It("rejects a mapping that does not preserve edges", func() {
		dom := graph.New()
		MustBeSuccessful(dom.AddNode("x", nil))
		MustBeSuccessful(dom.AddNode("y", nil))
		MustBeSuccessful(dom.AddEdge("x", "y", nil))
		cod := graph.New()
		MustBeSuccessful(cod.AddNode("X", nil))
		MustBeSuccessful(cod.AddNode("Y", nil))
		_, err := graph.NewHom(dom, cod, map[string]string{"x": "X", "y": "Y"})
		Expect(err).To(HaveOccurred())
	})

	It("rejects a mapping that violates attribute subsumption", func() {
		dom := graph.New()
		MustBeSuccessful(dom.AddNode("x", colorAttrs("blue")))
		cod := graph.New()
		MustBeSuccessful(cod.AddNode("X", colorAttrs("red")))
		_, err := graph.NewHom(dom, cod, map[string]string{"x": "X"})
		Expect(err).To(HaveOccurred())
	})

	It("composes two homomorphisms", func() {
		a := graph.New()
		MustBeSuccessful(a.AddNode("x", nil))
		b := graph.New()
		MustBeSuccessful(b.AddNode("X", nil))
		c := graph.New()
		MustBeSuccessful(c.AddNode("XX", nil))

		f := Must(graph.NewHom(a, b, map[string]string{"x": "X"}))
		g := Must(graph.NewHom(b, c, map[string]string{"X": "XX"}))
		fg := Must(graph.Compose(f, g))
		Expect(fg.Map["x"]).To(Equal("XX"))
	})

	It("computes fibers to identify clone/merge classes", func() {
		h := &graph.Hom{Map: map[string]string{"p1": "l", "p2": "l", "p3": "m"}}
		Expect(h.Fiber("l")).To(Equal([]string{"p1", "p2"}))
		Expect(h.Fiber("m")).To(Equal([]string{"p3"}))
	})
})

var _ = Describe("JSON round-trip", func() {
	It("round-trips a graph through MarshalJSON/UnmarshalJSON", func() {
		g := graph.New()
		MustBeSuccessful(g.AddNode("a", colorAttrs("blue")))
		MustBeSuccessful(g.AddNode("b", nil))
		MustBeSuccessful(g.AddEdge("a", "b", colorAttrs("red")))

		data := Must(g.MarshalJSON())
		back := graph.New()
		MustBeSuccessful(back.UnmarshalJSON(data))

		Expect(back.Nodes()).To(Equal(g.Nodes()))
		Expect(back.HasEdge("a", "b")).To(BeTrue())
		Expect(back.NodeAttrs("a")["color"].Contains("blue")).To(BeTrue())
		Expect(back.EdgeAttrs("a", "b")["color"].Contains("red")).To(BeTrue())
	})
})
