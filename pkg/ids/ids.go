// Package ids provides deterministic identifier minting for graph elements
// and a canonical-JSON content hash for graph content.
package ids

import (
	"fmt"

	"github.com/mandelsoft/regraph/pkg/utils"
)

// Fresh mints a collision-free identifier derived from base. If base is
// already taken (per exists), it appends a numeric suffix deterministically:
// base_2, base_3, ... The first untaken candidate is returned.
//
// Fresh-id generation is deterministic and must not rely on wall-clock time
// or a process-global counter, so that rewriting is reproducible.
func Fresh(base string, exists func(string) bool) string {
	if base == "" {
		base = "n"
	}
	if !exists(base) {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if !exists(candidate) {
			return candidate
		}
	}
}

// ContentHash returns a deterministic content address for v, using a
// canonical-JSON + SHA-256 mechanism.
func ContentHash(v any) string {
	return utils.HashData(v)
}
