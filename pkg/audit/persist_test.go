package audit_test

import (
	"os"

	. "github.com/mandelsoft/goutils/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/regraph/pkg/audit"
	"github.com/mandelsoft/regraph/pkg/config"
	"github.com/mandelsoft/regraph/pkg/graph"
)

var _ = Describe("Snapshot", func() {
	It("round-trips a log's history through the configured audit directory", func() {
		dir := Must(os.MkdirTemp("", "regraph-audit-*"))
		DeferCleanup(func() { _ = os.RemoveAll(dir) })

		cfg := Must(config.Load("${REGRAPH_AUDIT_DIR:-" + dir + "}"))
		Expect(cfg.AuditDir).To(Equal(dir))

		g := graph.New()
		MustBeSuccessful(g.AddNode("root", nil))
		vg := audit.NewVersionedGraph("master", g)
		_, err := vg.Rewrite(addNodeRule("n1"), rootMatch, "A")
		Expect(err).NotTo(HaveOccurred())

		MustBeSuccessful(vg.Log().SaveSnapshot(cfg.AuditDir))

		snap, err := audit.LoadSnapshot(cfg.AuditDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(snap.GetType()).To(Equal("regraph.audit.snapshot/v1"))
		Expect(snap.Entries).To(HaveLen(2)) // initial branch-create + rewrite A

		var messages []string
		for _, e := range snap.Entries {
			messages = append(messages, e.Message)
		}
		Expect(messages).To(ContainElement("A"))
	})
})
