package dataset

import (
	"encoding/json"
	"fmt"
	"sort"

	"simvote/domain/core"
)

// ExportManifest describes an exported bunch so the file can be traced back
// to the simulator output it was projected from
type ExportManifest struct {
	ScenarioID        core.ID           `json:"scenario_id"`
	Source            string            `json:"source"`
	SourceFingerprint core.Hash         `json:"source_fingerprint"`
	Method            string            `json:"method"`
	Mode              string            `json:"mode"`
	Rows              int               `json:"rows"`
	Columns           int               `json:"columns"`
	NCand             int               `json:"ncand"`
	TargetNames       []string          `json:"target_names,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	CreatedAt         core.Timestamp    `json:"created_at"`
}

// Export modes
const (
	ModeClassification = "classification"
	ModeRegression     = "regression"
)

// NewExportManifest creates a manifest for b projected from a scenario
func NewExportManifest(b *Bunch, source string, sourceFingerprint core.Hash, metadata map[string]string) *ExportManifest {
	mode := ModeRegression
	if b.IsClassification() {
		mode = ModeClassification
	}
	return &ExportManifest{
		ScenarioID:        b.ScenarioID,
		Source:            source,
		SourceFingerprint: sourceFingerprint,
		Method:            b.DESCR,
		Mode:              mode,
		Rows:              b.RowCount(),
		Columns:           b.ColumnCount(),
		NCand:             b.NCand,
		TargetNames:       b.TargetNames,
		Metadata:          metadata,
		CreatedAt:         core.Now(),
	}
}

// Fingerprint hashes the deterministic part of the manifest: the source
// fingerprint, method, mode and shape. Creation time and scenario ID are excluded.
func (m *ExportManifest) Fingerprint() core.Hash {
	data := fmt.Sprintf("%s|%s|%s|%d|%d|%d", m.SourceFingerprint, m.Method, m.Mode, m.Rows, m.Columns, m.NCand)
	return core.NewHash([]byte(data))
}

// JSON returns the indented JSON form of the manifest
func (m *ExportManifest) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export manifest: %w", err)
	}
	return data, nil
}

// ExportInfo describes an exported dataset file as read back from disk
type ExportInfo struct {
	Path    string
	Size    int64
	Headers []string
	Rows    int
	// Meta is empty for csv exports, which carry no meta sheet
	Meta map[string]string
}

// MetaKeys returns the meta keys in sorted order
func (i *ExportInfo) MetaKeys() []string {
	keys := make([]string, 0, len(i.Meta))
	for k := range i.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
