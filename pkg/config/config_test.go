package config_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/regraph/pkg/config"
)

var _ = Describe("Load", func() {
	It("falls back to the default template when none is given", func() {
		os.Unsetenv("REGRAPH_AUDIT_DIR")
		cfg, err := config.Load("")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.AuditDir).To(Equal("./.regraph/audit"))
	})

	It("expands an explicit environment variable", func() {
		os.Setenv("REGRAPH_AUDIT_DIR", "/var/lib/regraph/audit")
		defer os.Unsetenv("REGRAPH_AUDIT_DIR")
		cfg, err := config.Load(config.DefaultAuditDirTemplate)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.AuditDir).To(Equal("/var/lib/regraph/audit"))
	})
})
