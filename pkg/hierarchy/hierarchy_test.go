package hierarchy_test

import (
	. "github.com/mandelsoft/goutils/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/regraph/pkg/graph"
	"github.com/mandelsoft/regraph/pkg/hierarchy"
	"github.com/mandelsoft/regraph/pkg/match"
	"github.com/mandelsoft/regraph/pkg/rule"
)

var _ = Describe("Hierarchy", func() {
	It("rejects adding the same graph id twice", func() {
		h := hierarchy.New()
		MustBeSuccessful(h.AddGraph("g", graph.New(), nil))
		Expect(h.AddGraph("g", graph.New(), nil)).To(HaveOccurred())
	})

	It("validates a typing is a total homomorphism", func() {
		h := hierarchy.New()
		src := graph.New()
		MustBeSuccessful(src.AddNode("x", nil))
		tgt := graph.New()
		MustBeSuccessful(tgt.AddNode("y", nil))
		MustBeSuccessful(h.AddGraph("src", src, nil))
		MustBeSuccessful(h.AddGraph("tgt", tgt, nil))

		Expect(h.AddTyping("src", "tgt", map[graph.NodeID]graph.NodeID{"x": "nope"})).To(HaveOccurred())
		MustBeSuccessful(h.AddTyping("src", "tgt", map[graph.NodeID]graph.NodeID{"x": "y"}))
	})

	It("rejects a typing that would create a cycle", func() {
		h := hierarchy.New()
		a, b := graph.New(), graph.New()
		MustBeSuccessful(a.AddNode("x", nil))
		MustBeSuccessful(b.AddNode("y", nil))
		MustBeSuccessful(h.AddGraph("a", a, nil))
		MustBeSuccessful(h.AddGraph("b", b, nil))
		MustBeSuccessful(h.AddTyping("a", "b", map[graph.NodeID]graph.NodeID{"x": "y"}))

		err := h.AddTyping("b", "a", map[graph.NodeID]graph.NodeID{"y": "x"})
		Expect(err).To(HaveOccurred())
	})

	It("rejects a typing that does not commute with an existing composition", func() {
		h := hierarchy.New()
		a, b, c := graph.New(), graph.New(), graph.New()
		MustBeSuccessful(a.AddNode("x", nil))
		MustBeSuccessful(b.AddNode("y1", nil))
		MustBeSuccessful(b.AddNode("y2", nil))
		MustBeSuccessful(c.AddNode("z1", nil))
		MustBeSuccessful(c.AddNode("z2", nil))
		MustBeSuccessful(h.AddGraph("a", a, nil))
		MustBeSuccessful(h.AddGraph("b", b, nil))
		MustBeSuccessful(h.AddGraph("c", c, nil))

		MustBeSuccessful(h.AddTyping("b", "c", map[graph.NodeID]graph.NodeID{"y1": "z1", "y2": "z2"}))
		MustBeSuccessful(h.AddTyping("a", "b", map[graph.NodeID]graph.NodeID{"x": "y1"}))

		err := h.AddTyping("a", "c", map[graph.NodeID]graph.NodeID{"x": "z2"})
		Expect(err).To(HaveOccurred())

		MustBeSuccessful(h.AddTyping("a", "c", map[graph.NodeID]graph.NodeID{"x": "z1"}))
	})

	It("reports node_type across every outbound typing", func() {
		h := hierarchy.New()
		g, t1, t2 := graph.New(), graph.New(), graph.New()
		MustBeSuccessful(g.AddNode("x", nil))
		MustBeSuccessful(t1.AddNode("a", nil))
		MustBeSuccessful(t2.AddNode("b", nil))
		MustBeSuccessful(h.AddGraph("g", g, nil))
		MustBeSuccessful(h.AddGraph("t1", t1, nil))
		MustBeSuccessful(h.AddGraph("t2", t2, nil))
		MustBeSuccessful(h.AddTyping("g", "t1", map[graph.NodeID]graph.NodeID{"x": "a"}))
		MustBeSuccessful(h.AddTyping("g", "t2", map[graph.NodeID]graph.NodeID{"x": "b"}))

		types, err := h.NodeType("g", "x")
		Expect(err).NotTo(HaveOccurred())
		Expect(types).To(HaveKeyWithValue("t1", graph.NodeID("a")))
		Expect(types).To(HaveKeyWithValue("t2", graph.NodeID("b")))
	})

	It("propagates a clone backward onto every ancestor node typed by the cloned element", func() {
		h := hierarchy.New()

		tGraph := graph.New()
		MustBeSuccessful(tGraph.AddNode("agent", nil))
		MustBeSuccessful(tGraph.AddNode("action", nil))

		gGraph := graph.New()
		MustBeSuccessful(gGraph.AddNode("protein", nil))
		MustBeSuccessful(gGraph.AddNode("region", nil))
		MustBeSuccessful(gGraph.AddNode("binding", nil))

		MustBeSuccessful(h.AddGraph("T", tGraph, nil))
		MustBeSuccessful(h.AddGraph("G", gGraph, nil))
		MustBeSuccessful(h.AddTyping("G", "T", map[graph.NodeID]graph.NodeID{
			"protein": "agent", "region": "agent", "binding": "action",
		}))

		pattern := graph.New()
		MustBeSuccessful(pattern.AddNode("x", nil))
		r := rule.NewFromPattern(pattern)
		_, _, err := r.InjectCloneNode("x", "")
		Expect(err).NotTo(HaveOccurred())

		m := match.Match{Map: map[graph.NodeID]graph.NodeID{"x": "agent"}}
		_, err = h.Rewrite("T", r, m, nil, nil, false)
		Expect(err).NotTo(HaveOccurred())

		Expect(tGraph.Nodes()).To(ConsistOf(graph.NodeID("agent"), graph.NodeID("agent_2"), graph.NodeID("action")))
		Expect(gGraph.Nodes()).To(ConsistOf(
			graph.NodeID("protein"), graph.NodeID("protein_2"),
			graph.NodeID("region"), graph.NodeID("region_2"),
			graph.NodeID("binding")))

		for _, n := range gGraph.Nodes() {
			types, err := h.NodeType("G", n)
			Expect(err).NotTo(HaveOccurred())
			Expect(types).To(HaveKey("T"))
			Expect(tGraph.HasNode(types["T"])).To(BeTrue())
		}
	})

	It("propagates a merge forward onto every descendant typed by the merged elements", func() {
		h := hierarchy.New()

		g2 := graph.New()
		MustBeSuccessful(g2.AddNode("good_circle", nil))
		MustBeSuccessful(g2.AddNode("bad_circle", nil))

		quality := graph.New()
		MustBeSuccessful(quality.AddNode("good", nil))
		MustBeSuccessful(quality.AddNode("bad", nil))

		MustBeSuccessful(h.AddGraph("g2", g2, nil))
		MustBeSuccessful(h.AddGraph("quality", quality, nil))
		MustBeSuccessful(h.AddTyping("g2", "quality", map[graph.NodeID]graph.NodeID{
			"good_circle": "good", "bad_circle": "bad",
		}))

		pattern := graph.New()
		MustBeSuccessful(pattern.AddNode("x", nil))
		MustBeSuccessful(pattern.AddNode("y", nil))
		r := rule.NewFromPattern(pattern)
		merged, err := r.InjectMergeNodes([]graph.NodeID{"x", "y"}, "bad_good")
		Expect(err).NotTo(HaveOccurred())
		Expect(merged).To(Equal(graph.NodeID("bad_good")))

		m := match.Match{Map: map[graph.NodeID]graph.NodeID{"x": "good_circle", "y": "bad_circle"}}
		deriv, err := h.Rewrite("g2", r, m, nil, nil, false)
		Expect(err).NotTo(HaveOccurred())

		Expect(g2.Nodes()).To(HaveLen(1))
		mergedG2 := g2.Nodes()[0]
		Expect(deriv.RHS.Map["bad_good"]).To(Equal(mergedG2))

		Expect(quality.Nodes()).To(HaveLen(1))
		mergedQuality := quality.Nodes()[0]

		types, err := h.NodeType("g2", mergedG2)
		Expect(err).NotTo(HaveOccurred())
		Expect(types).To(HaveKeyWithValue("quality", mergedQuality))
	})

	It("rejects a strict-mode rewrite that would force backward propagation", func() {
		h := hierarchy.New()
		tGraph := graph.New()
		MustBeSuccessful(tGraph.AddNode("agent", nil))
		gGraph := graph.New()
		MustBeSuccessful(gGraph.AddNode("protein", nil))
		MustBeSuccessful(h.AddGraph("T", tGraph, nil))
		MustBeSuccessful(h.AddGraph("G", gGraph, nil))
		MustBeSuccessful(h.AddTyping("G", "T", map[graph.NodeID]graph.NodeID{"protein": "agent"}))

		pattern := graph.New()
		MustBeSuccessful(pattern.AddNode("x", nil))
		r := rule.NewFromPattern(pattern)
		MustBeSuccessful(r.InjectRemoveNode("x"))

		m := match.Match{Map: map[graph.NodeID]graph.NodeID{"x": "agent"}}
		_, err := h.Rewrite("T", r, m, nil, nil, true)
		Expect(err).To(HaveOccurred())
	})

	It("accepts a strict-mode clone once p_typing assigns every ancestor instance", func() {
		h := hierarchy.New()
		tGraph := graph.New()
		MustBeSuccessful(tGraph.AddNode("agent", nil))
		gGraph := graph.New()
		MustBeSuccessful(gGraph.AddNode("protein", nil))
		MustBeSuccessful(h.AddGraph("T", tGraph, nil))
		MustBeSuccessful(h.AddGraph("G", gGraph, nil))
		MustBeSuccessful(h.AddTyping("G", "T", map[graph.NodeID]graph.NodeID{"protein": "agent"}))

		pattern := graph.New()
		MustBeSuccessful(pattern.AddNode("x", nil))
		r := rule.NewFromPattern(pattern)
		_, rhsClone, err := r.InjectCloneNode("x", "")
		Expect(err).NotTo(HaveOccurred())

		m := match.Match{Map: map[graph.NodeID]graph.NodeID{"x": "agent"}}
		pTyping := map[string]map[graph.NodeID]graph.NodeID{
			"G": {"protein": "agent"},
		}
		_, err = h.Rewrite("T", r, m, pTyping, nil, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(gGraph.Nodes()).To(ConsistOf(graph.NodeID("protein")))
		Expect(rhsClone).NotTo(BeEmpty())
	})

	It("drops relation entries that reference a node removed by propagation", func() {
		h := hierarchy.New()
		tGraph := graph.New()
		MustBeSuccessful(tGraph.AddNode("agent", nil))
		gGraph := graph.New()
		MustBeSuccessful(gGraph.AddNode("protein", nil))
		other := graph.New()
		MustBeSuccessful(other.AddNode("o", nil))
		MustBeSuccessful(h.AddGraph("T", tGraph, nil))
		MustBeSuccessful(h.AddGraph("G", gGraph, nil))
		MustBeSuccessful(h.AddGraph("other", other, nil))
		MustBeSuccessful(h.AddTyping("G", "T", map[graph.NodeID]graph.NodeID{"protein": "agent"}))
		MustBeSuccessful(h.AddRelation("G", "other", [][2]graph.NodeID{{"protein", "o"}}))

		pattern := graph.New()
		MustBeSuccessful(pattern.AddNode("x", nil))
		r := rule.NewFromPattern(pattern)
		MustBeSuccessful(r.InjectRemoveNode("x"))
		m := match.Match{Map: map[graph.NodeID]graph.NodeID{"x": "agent"}}
		_, err := h.Rewrite("T", r, m, nil, nil, false)
		Expect(err).NotTo(HaveOccurred())

		Expect(h.Relation("G", "other")).To(BeEmpty())
	})

	It("changes a graph's version when its own content or what it is typed by changes", func() {
		h := hierarchy.New()
		tGraph := graph.New()
		MustBeSuccessful(tGraph.AddNode("agent", nil))
		gGraph := graph.New()
		MustBeSuccessful(gGraph.AddNode("protein", nil))
		MustBeSuccessful(h.AddGraph("T", tGraph, nil))
		MustBeSuccessful(h.AddGraph("G", gGraph, nil))
		MustBeSuccessful(h.AddTyping("G", "T", map[graph.NodeID]graph.NodeID{"protein": "agent"}))

		v1, err := h.GraphVersion("G")
		Expect(err).NotTo(HaveOccurred())
		v1Again, err := h.GraphVersion("G")
		Expect(err).NotTo(HaveOccurred())
		Expect(v1Again).To(Equal(v1), "the same state must hash the same way twice")

		MustBeSuccessful(gGraph.AddNode("protein_2", nil))
		v2, err := h.GraphVersion("G")
		Expect(err).NotTo(HaveOccurred())
		Expect(v2).NotTo(Equal(v1), "a content change must change the version")

		MustBeSuccessful(tGraph.AddNode("other_agent", nil))
		v3, err := h.GraphVersion("G")
		Expect(err).NotTo(HaveOccurred())
		Expect(v3).NotTo(Equal(v2), "a change to what G is typed by must also change G's version")

		_, err = h.GraphVersion("does-not-exist")
		Expect(err).To(HaveOccurred())
	})
})
