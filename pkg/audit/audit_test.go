package audit_test

import (
	. "github.com/mandelsoft/goutils/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/regraph/pkg/audit"
	"github.com/mandelsoft/regraph/pkg/graph"
	"github.com/mandelsoft/regraph/pkg/hierarchy"
	"github.com/mandelsoft/regraph/pkg/match"
	"github.com/mandelsoft/regraph/pkg/rule"
)

func addNodeRule(name string) *rule.Rule {
	p := graph.New()
	MustBeSuccessful(p.AddNode("x", nil))
	r := rule.NewFromPattern(p)
	MustBeSuccessful(r.InjectAddNode(name, nil))
	return r
}

var rootMatch = match.Match{Map: map[graph.NodeID]graph.NodeID{"x": "root"}}

var _ = Describe("VersionedGraph", func() {
	It("rolls three commits back to the first, leaving history intact", func() {
		g := graph.New()
		MustBeSuccessful(g.AddNode("root", nil))
		vg := audit.NewVersionedGraph("master", g)

		_, err := vg.Rewrite(addNodeRule("n1"), rootMatch, "A")
		Expect(err).NotTo(HaveOccurred())
		headA, _ := vg.Log().Head("master")

		_, err = vg.Rewrite(addNodeRule("n2"), rootMatch, "B")
		Expect(err).NotTo(HaveOccurred())
		_, err = vg.Rewrite(addNodeRule("n3"), rootMatch, "C")
		Expect(err).NotTo(HaveOccurred())

		Expect(vg.Graph().Nodes()).To(ConsistOf(graph.NodeID("root"), graph.NodeID("n1"), graph.NodeID("n2"), graph.NodeID("n3")))

		_, err = vg.Rollback(headA)
		Expect(err).NotTo(HaveOccurred())
		Expect(vg.Graph().Nodes()).To(ConsistOf(graph.NodeID("root"), graph.NodeID("n1")))

		history := vg.PrintHistory()
		joined := ""
		for _, line := range history {
			joined += line + "\n"
		}
		Expect(joined).To(ContainSubstring("A"))
		Expect(joined).To(ContainSubstring("B"))
		Expect(joined).To(ContainSubstring("C"))
		Expect(joined).To(ContainSubstring("rollback"))
	})

	It("rejects rolling back to a commit that does not exist", func() {
		g := graph.New()
		MustBeSuccessful(g.AddNode("root", nil))
		vg := audit.NewVersionedGraph("master", g)
		_, err := vg.Rollback("does-not-exist")
		Expect(err).To(HaveOccurred())
	})

	It("merges a feature branch's commits back into master", func() {
		g := graph.New()
		MustBeSuccessful(g.AddNode("root", nil))
		vg := audit.NewVersionedGraph("master", g)

		_, err := vg.Branch("feature")
		Expect(err).NotTo(HaveOccurred())
		Expect(vg.CurrentBranch()).To(Equal("feature"))

		_, err = vg.Rewrite(addNodeRule("f1"), rootMatch, "feature commit")
		Expect(err).NotTo(HaveOccurred())

		MustBeSuccessful(vg.SwitchBranch("master"))
		Expect(vg.Graph().Nodes()).To(ConsistOf(graph.NodeID("root")))

		_, err = vg.MergeWith("feature")
		Expect(err).NotTo(HaveOccurred())
		Expect(vg.Graph().Nodes()).To(ConsistOf(graph.NodeID("root"), graph.NodeID("f1")))
	})
})

var _ = Describe("VersionedHierarchy", func() {
	It("rolls back a rewrite committed against a named graph", func() {
		g := graph.New()
		MustBeSuccessful(g.AddNode("root", nil))
		h := hierarchy.New()
		MustBeSuccessful(h.AddGraph("G", g, nil))
		vh := audit.NewVersionedHierarchy("master", h)

		_, err := vh.Rewrite("G", addNodeRule("n1"), rootMatch, nil, nil, false, "A")
		Expect(err).NotTo(HaveOccurred())
		headA, _ := vh.Log().Head("master")
		_, err = vh.Rewrite("G", addNodeRule("n2"), rootMatch, nil, nil, false, "B")
		Expect(err).NotTo(HaveOccurred())

		Expect(g.Nodes()).To(ConsistOf(graph.NodeID("root"), graph.NodeID("n1"), graph.NodeID("n2")))

		_, err = vh.Rollback(headA)
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Nodes()).To(ConsistOf(graph.NodeID("root"), graph.NodeID("n1")))
	})

	It("branches, diverges and merges a hierarchy the same way a graph does", func() {
		g := graph.New()
		MustBeSuccessful(g.AddNode("root", nil))
		h := hierarchy.New()
		MustBeSuccessful(h.AddGraph("G", g, nil))
		vh := audit.NewVersionedHierarchy("master", h)

		_, err := vh.Branch("feature")
		Expect(err).NotTo(HaveOccurred())
		Expect(vh.CurrentBranch()).To(Equal("feature"))

		_, err = vh.Rewrite("G", addNodeRule("f1"), rootMatch, nil, nil, false, "feature commit")
		Expect(err).NotTo(HaveOccurred())
		Expect(vh.Hierarchy().Graph("G").Nodes()).To(ConsistOf(graph.NodeID("root"), graph.NodeID("f1")))

		MustBeSuccessful(vh.SwitchBranch("master"))
		Expect(vh.Hierarchy().Graph("G").Nodes()).To(ConsistOf(graph.NodeID("root")))
		Expect(g.Nodes()).To(ConsistOf(graph.NodeID("root")))

		_, err = vh.MergeWith("feature")
		Expect(err).NotTo(HaveOccurred())
		Expect(vh.Hierarchy().Graph("G").Nodes()).To(ConsistOf(graph.NodeID("root"), graph.NodeID("f1")))
	})

	It("rolls back every branch whose head descends from the target commit", func() {
		g := graph.New()
		MustBeSuccessful(g.AddNode("root", nil))
		h := hierarchy.New()
		MustBeSuccessful(h.AddGraph("G", g, nil))
		vh := audit.NewVersionedHierarchy("master", h)

		_, err := vh.Rewrite("G", addNodeRule("a"), rootMatch, nil, nil, false, "A")
		Expect(err).NotTo(HaveOccurred())
		headA, _ := vh.Log().Head("master")

		_, err = vh.Branch("feature")
		Expect(err).NotTo(HaveOccurred())
		_, err = vh.Rewrite("G", addNodeRule("b"), rootMatch, nil, nil, false, "B on feature")
		Expect(err).NotTo(HaveOccurred())

		MustBeSuccessful(vh.SwitchBranch("master"))
		_, err = vh.Rewrite("G", addNodeRule("c"), rootMatch, nil, nil, false, "C on master")
		Expect(err).NotTo(HaveOccurred())

		_, err = vh.Rollback(headA)
		Expect(err).NotTo(HaveOccurred())

		Expect(vh.Hierarchy().Graph("G").Nodes()).To(ConsistOf(graph.NodeID("root"), graph.NodeID("a")))
		MustBeSuccessful(vh.SwitchBranch("feature"))
		Expect(vh.Hierarchy().Graph("G").Nodes()).To(ConsistOf(graph.NodeID("root"), graph.NodeID("a")))
	})
})
