package exporter

import (
	"context"
	"errors"
	"sort"

	"github.com/artpar/workbench/internal/core"
)

// Common errors
var (
	ErrInvalidCollection = errors.New("invalid collection")
	ErrExportFailed      = errors.New("export failed")
)

// Format represents a supported export format.
type Format string

const (
	FormatCurl      Format = "curl"
	FormatWorkbench Format = "workbench"
)

// Exporter defines the interface for exporting collections to external formats.
type Exporter interface {
	// Name returns the name of this exporter.
	Name() string

	// Format returns the format this exporter produces.
	Format() Format

	// FileExtension returns the file extension for exported files.
	FileExtension() string

	// Export converts the collection to the target format. Variables in env
	// are substituted where the format renders compiled requests.
	Export(ctx context.Context, coll *core.Collection, env *core.Environment) ([]byte, error)
}

// ExportResult contains the result of an export operation.
type ExportResult struct {
	Content       []byte
	Format        Format
	FileExtension string
}

// Registry holds all registered exporters.
type Registry struct {
	exporters map[Format]Exporter
}

// NewRegistry creates a new exporter registry.
func NewRegistry() *Registry {
	return &Registry{
		exporters: make(map[Format]Exporter),
	}
}

// NewDefaultRegistry returns a registry with the curl and workbench exporters.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewCurlExporter())
	r.Register(NewWorkbenchExporter())
	return r
}

// Register adds an exporter to the registry.
func (r *Registry) Register(exp Exporter) {
	r.exporters[exp.Format()] = exp
}

// Get returns an exporter by format.
func (r *Registry) Get(format Format) (Exporter, bool) {
	exp, ok := r.exporters[format]
	return exp, ok
}

// Export exports the collection using the specified format.
func (r *Registry) Export(ctx context.Context, format Format, coll *core.Collection, env *core.Environment) (*ExportResult, error) {
	exp, ok := r.exporters[format]
	if !ok {
		return nil, ErrExportFailed
	}

	content, err := exp.Export(ctx, coll, env)
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		Content:       content,
		Format:        format,
		FileExtension: exp.FileExtension(),
	}, nil
}

// ListFormats returns all registered formats, sorted.
func (r *Registry) ListFormats() []Format {
	formats := make([]Format, 0, len(r.exporters))
	for f := range r.exporters {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}
