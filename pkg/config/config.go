// Package config provides minimal environment-expanded configuration for
// the ambient parts of the rewriting core, following the teacher's use of
// envsubst-style templating for deployment-time configuration.
package config

import (
	"github.com/drone/envsubst"
)

// DefaultAuditDirTemplate is the storage-root template for the audit log's
// optional on-disk JSON export, expanded through the environment so a
// deployment can relocate it without a code change.
const DefaultAuditDirTemplate = "${REGRAPH_AUDIT_DIR:-./.regraph/audit}"

// Config carries the environment-resolved settings the rewriting core reads
// at startup: currently just where a versioned object's audit trail may be
// exported to, via Log.SaveSnapshot.
type Config struct {
	// AuditDir is the directory `audit.Log.SaveSnapshot` writes snapshots
	// under and `audit.LoadSnapshot` reads them from.
	AuditDir string
}

// Load resolves a Config from a template (defaulting to
// DefaultAuditDirTemplate), expanding any ${VAR}/${VAR:-default} references
// against the process environment.
func Load(auditDirTemplate string) (*Config, error) {
	if auditDirTemplate == "" {
		auditDirTemplate = DefaultAuditDirTemplate
	}
	dir, err := envsubst.EvalEnv(auditDirTemplate)
	if err != nil {
		return nil, err
	}
	return &Config{AuditDir: dir}, nil
}
