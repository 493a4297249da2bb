package audit

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/mandelsoft/regraph/pkg/runtime"
	"github.com/mandelsoft/regraph/pkg/utils"
)

// SnapshotEntry is the on-disk record for a single commit in an exported
// audit log.
type SnapshotEntry struct {
	Timestamp utils.Timestamp `json:"timestamp"`
	ID        CommitID        `json:"id"`
	Branch    string          `json:"branch"`
	Message   string          `json:"message"`
	Kind      PayloadKind     `json:"kind"`
}

// Snapshot is the self-describing form of a Log written to an audit
// storage root (see pkg/config.Config.AuditDir). Its embedded type tag lets
// a reader dispatch the decode through a runtime.Scheme without first
// knowing the export format, the same way the runtime package's registry
// dispatches decoding for any other family of typed objects.
type Snapshot struct {
	runtime.ObjectMeta
	Entries []SnapshotEntry `json:"entries"`
}

// snapshotType is the only member of the audit package's scheme today; new
// on-disk export formats register alongside it as the format evolves.
const snapshotType = "regraph.audit.snapshot/v1"

var snapshotScheme = newSnapshotScheme()

func newSnapshotScheme() runtime.Scheme[*Snapshot] {
	s := runtime.NewYAMLScheme[*Snapshot](runtime.TypeExtractorFor[Snapshot, *Snapshot]())
	runtime.MustRegister[Snapshot, *Snapshot, *Snapshot](s, snapshotType) // Goland requires the third type parameter
	return s
}

// Snapshot renders l's full history, across every branch, as a
// self-describing Snapshot.
func (l *Log) Snapshot() *Snapshot {
	entries := make([]SnapshotEntry, 0, len(l.order))
	for _, id := range l.order {
		c := l.commits[id]
		entries = append(entries, SnapshotEntry{
			Timestamp: c.Timestamp,
			ID:        c.ID,
			Branch:    c.Branch,
			Message:   c.Message,
			Kind:      c.Payload.Kind,
		})
	}
	snap := &Snapshot{Entries: entries}
	snap.SetType(snapshotType)
	return snap
}

const snapshotFile = "audit-log.json"

// SaveSnapshot writes l's history to dir/audit-log.json, creating dir if
// necessary. dir is normally cfg.AuditDir, as resolved by pkg/config.Load.
func (l *Log) SaveSnapshot(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return newErr("save_snapshot", "%v", err)
	}
	data, err := json.MarshalIndent(l.Snapshot(), "", "  ")
	if err != nil {
		return newErr("save_snapshot", "%v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, snapshotFile), data, 0o644); err != nil {
		return newErr("save_snapshot", "%v", err)
	}
	return nil
}

// LoadSnapshot reads back a Snapshot previously written by SaveSnapshot,
// dispatching on its embedded type tag through the runtime scheme rather
// than assuming the caller already knows the export format.
func LoadSnapshot(dir string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(dir, snapshotFile))
	if err != nil {
		return nil, newErr("load_snapshot", "%v", err)
	}
	snap, err := snapshotScheme.Decode(data)
	if err != nil {
		return nil, newErr("load_snapshot", "%v", err)
	}
	if snap.GetType() != snapshotType {
		return nil, newErr("load_snapshot", "unrecognized snapshot type %q", snap.GetType())
	}
	return snap, nil
}
