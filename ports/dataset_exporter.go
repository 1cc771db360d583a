package ports

import (
	"io"

	"simvote/domain/dataset"
	"simvote/domain/scenario"
)

// DatasetExporter writes projected datasets and result tables to files.
// The file format follows the path extension.
type DatasetExporter interface {
	ExportBunch(path string, b *dataset.Bunch, m *dataset.ExportManifest) error
	ExportResults(path string, s *scenario.Scenario) error
	// InspectDataset reads back an exported dataset; name selects the format
	InspectDataset(name string, src io.Reader) (*dataset.ExportInfo, error)
}
