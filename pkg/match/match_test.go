package match_test

import (
	. "github.com/mandelsoft/goutils/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/regraph/pkg/attrset"
	"github.com/mandelsoft/regraph/pkg/graph"
	"github.com/mandelsoft/regraph/pkg/match"
)

func trueAttr() attrset.Map {
	return attrset.NewMap(map[string]attrset.Value{"friends": attrset.NewFinite(true)})
}

var _ = Describe("FindMatching", func() {
	var target *graph.Graph

	BeforeEach(func() {
		target = graph.New()
		MustBeSuccessful(target.AddNode("1_3", nil))
		MustBeSuccessful(target.AddNode("2", nil))
		MustBeSuccessful(target.AddNode("2p", nil))
		MustBeSuccessful(target.AddEdge("1_3", "2", trueAttr()))
		MustBeSuccessful(target.AddEdge("1_3", "2p", nil))
	})

	It("finds every monomorphism respecting edge attribute subsumption", func() {
		pattern := graph.New()
		MustBeSuccessful(pattern.AddNode("x", nil))
		MustBeSuccessful(pattern.AddNode("y", nil))
		MustBeSuccessful(pattern.AddEdge("x", "y", trueAttr()))

		it := Must(match.FindMatching(pattern, target, nil))
		matches := match.All(it)
		Expect(matches).To(HaveLen(1))
		Expect(matches[0].Map).To(Equal(map[string]string{"x": "1_3", "y": "2"}))
	})

	It("finds no match once the required attribute is removed", func() {
		MustBeSuccessful(target.RemoveEdgeAttrs("1_3", "2", trueAttr()))

		pattern := graph.New()
		MustBeSuccessful(pattern.AddNode("x", nil))
		MustBeSuccessful(pattern.AddNode("y", nil))
		MustBeSuccessful(pattern.AddEdge("x", "y", trueAttr()))

		it := Must(match.FindMatching(pattern, target, nil))
		matches := match.All(it)
		Expect(matches).To(BeEmpty())
	})

	It("enforces injectivity: distinct pattern nodes never map to the same target node", func() {
		pattern := graph.New()
		MustBeSuccessful(pattern.AddNode("x", nil))
		MustBeSuccessful(pattern.AddNode("y", nil))

		it := Must(match.FindMatching(pattern, target, nil))
		for _, m := range match.All(it) {
			Expect(m.Map["x"]).NotTo(Equal(m.Map["y"]))
		}
	})

	It("restricts candidates per a typing", func() {
		pattern := graph.New()
		MustBeSuccessful(pattern.AddNode("x", nil))

		typing := match.Typing{"x": {"2"}}
		it := Must(match.FindMatching(pattern, target, typing))
		for _, m := range match.All(it) {
			Expect(m.Map["x"]).To(Equal("2"))
		}
	})

	It("rejects a typing that names a node outside the pattern", func() {
		pattern := graph.New()
		MustBeSuccessful(pattern.AddNode("x", nil))
		_, err := match.FindMatching(pattern, target, match.Typing{"nonexistent": {"2"}})
		Expect(err).To(HaveOccurred())
	})

	It("is stable: two successive calls without mutation return the same sequence", func() {
		pattern := graph.New()
		MustBeSuccessful(pattern.AddNode("x", nil))
		MustBeSuccessful(pattern.AddNode("y", nil))
		MustBeSuccessful(pattern.AddEdge("x", "y", nil))

		it1 := Must(match.FindMatching(pattern, target, nil))
		first := match.All(it1)
		it2 := Must(match.FindMatching(pattern, target, nil))
		second := match.All(it2)
		Expect(first).To(Equal(second))
	})

	It("lets a caller stop consuming early without deadlocking", func() {
		pattern := graph.New()
		MustBeSuccessful(pattern.AddNode("x", nil))

		it := Must(match.FindMatching(pattern, target, nil))
		_, ok := it.Next()
		Expect(ok).To(BeTrue())
		it.Close()
	})
})
