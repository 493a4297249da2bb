// Package reglog centralizes the logging realms used across the rewriting
// core, following a per-package realm-plus-dynamic-logger convention.
package reglog

import (
	"github.com/mandelsoft/logging"
)

var (
	RealmAttrSet   = logging.DefineRealm("attrset", "attribute-set algebra")
	RealmGraph     = logging.DefineRealm("graph", "graph and homomorphism primitives")
	RealmMatch     = logging.DefineRealm("match", "pattern matching")
	RealmRule      = logging.DefineRealm("rule", "rule construction")
	RealmRewrite   = logging.DefineRealm("rewrite", "sesqui-pushout rewrite engine")
	RealmHierarchy = logging.DefineRealm("hierarchy", "hierarchy and propagation")
	RealmAudit     = logging.DefineRealm("audit", "revision control")
)

// New returns a logger bound to realm r in the default logging context.
func New(r logging.Realm) logging.Logger {
	return logging.DynamicLogger(logging.DefaultContext(), r)
}
