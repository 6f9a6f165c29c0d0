package importer

import (
	"context"
	"fmt"

	"github.com/artpar/workbench/internal/core"
	"github.com/artpar/workbench/internal/storage"
	"gopkg.in/yaml.v3"
)

// FormatWorkbench is the native YAML collection document.
const FormatWorkbench Format = "workbench"

// WorkbenchImporter reads collections written by the workbench exporter.
type WorkbenchImporter struct{}

// NewWorkbenchImporter creates a native-format importer.
func NewWorkbenchImporter() *WorkbenchImporter {
	return &WorkbenchImporter{}
}

func (w *WorkbenchImporter) Name() string             { return "Workbench collection" }
func (w *WorkbenchImporter) Format() Format           { return FormatWorkbench }
func (w *WorkbenchImporter) FileExtensions() []string { return []string{".yaml", ".yml"} }

// DetectFormat looks for a versioned document with a collections list.
func (w *WorkbenchImporter) DetectFormat(content []byte) bool {
	var probe struct {
		Version     int       `yaml:"version"`
		Collections yaml.Node `yaml:"collections"`
	}
	if err := yaml.Unmarshal(content, &probe); err != nil {
		return false
	}
	return probe.Version > 0 && probe.Collections.Kind == yaml.SequenceNode
}

// Import returns the single collection of the document, or a wrapper
// collection when it holds several.
func (w *WorkbenchImporter) Import(ctx context.Context, content []byte) (*core.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !w.DetectFormat(content) {
		return nil, fmt.Errorf("%w: not a workbench document", ErrInvalidFormat)
	}

	collections, err := storage.UnmarshalYAML(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseError, err)
	}
	if len(collections) == 1 {
		return collections[0], nil
	}

	wrapper := core.NewCollection("Imported collections")
	for _, c := range collections {
		wrapper.AddCollection(c)
	}
	return wrapper, nil
}

var _ Importer = (*WorkbenchImporter)(nil)
