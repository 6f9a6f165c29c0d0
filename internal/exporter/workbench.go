package exporter

import (
	"context"

	"github.com/artpar/workbench/internal/core"
	"github.com/artpar/workbench/internal/storage"
)

// WorkbenchExporter writes a collection in the native YAML document format,
// uncompiled, so it can be imported again without loss.
type WorkbenchExporter struct{}

// NewWorkbenchExporter creates a new native-format exporter.
func NewWorkbenchExporter() *WorkbenchExporter {
	return &WorkbenchExporter{}
}

func (w *WorkbenchExporter) Name() string          { return "Workbench collection" }
func (w *WorkbenchExporter) Format() Format        { return FormatWorkbench }
func (w *WorkbenchExporter) FileExtension() string { return ".yaml" }

// Export ignores env: variables stay as placeholders.
func (w *WorkbenchExporter) Export(ctx context.Context, coll *core.Collection, _ *core.Environment) ([]byte, error) {
	if coll == nil {
		return nil, ErrInvalidCollection
	}
	return storage.MarshalYAML([]*core.Collection{coll})
}

var _ Exporter = (*WorkbenchExporter)(nil)
