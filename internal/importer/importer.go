package importer

import (
	"context"
	"errors"
	"sort"

	"github.com/artpar/workbench/internal/core"
)

// Common errors
var (
	ErrInvalidFormat = errors.New("invalid format")
	ErrParseError    = errors.New("parse error")
)

// Format represents a supported import format.
type Format string

const (
	FormatAuto Format = "auto"
	FormatCurl Format = "curl"
)

// Importer defines the interface for importing collections from external formats.
type Importer interface {
	// Name returns the name of this importer.
	Name() string

	// Format returns the format this importer handles.
	Format() Format

	// FileExtensions returns the file extensions this importer can handle.
	FileExtensions() []string

	// DetectFormat checks if the content matches this importer's format.
	DetectFormat(content []byte) bool

	// Import parses the content and returns a collection.
	Import(ctx context.Context, content []byte) (*core.Collection, error)
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Collection   *core.Collection
	RequestCount int
	SourceFormat Format
}

// Registry holds all registered importers.
type Registry struct {
	importers map[Format]Importer
}

// NewRegistry creates a new importer registry.
func NewRegistry() *Registry {
	return &Registry{
		importers: make(map[Format]Importer),
	}
}

// NewDefaultRegistry returns a registry with every built-in importer.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewCurlImporter())
	r.Register(NewWorkbenchImporter())
	return r
}

// Register adds an importer to the registry.
func (r *Registry) Register(imp Importer) {
	r.importers[imp.Format()] = imp
}

// Get returns an importer by format.
func (r *Registry) Get(format Format) (Importer, bool) {
	imp, ok := r.importers[format]
	return imp, ok
}

// DetectAndImport automatically detects the format and imports the content.
func (r *Registry) DetectAndImport(ctx context.Context, content []byte) (*ImportResult, error) {
	for _, format := range r.ListFormats() {
		imp := r.importers[format]
		if imp.DetectFormat(content) {
			return runImport(ctx, imp, content)
		}
	}
	return nil, ErrInvalidFormat
}

// Import imports content using the specified format.
func (r *Registry) Import(ctx context.Context, format Format, content []byte) (*ImportResult, error) {
	if format == FormatAuto {
		return r.DetectAndImport(ctx, content)
	}

	imp, ok := r.importers[format]
	if !ok {
		return nil, ErrInvalidFormat
	}
	return runImport(ctx, imp, content)
}

// ListFormats returns all registered formats, sorted.
func (r *Registry) ListFormats() []Format {
	formats := make([]Format, 0, len(r.importers))
	for f := range r.importers {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

func runImport(ctx context.Context, imp Importer, content []byte) (*ImportResult, error) {
	coll, err := imp.Import(ctx, content)
	if err != nil {
		return nil, err
	}
	return &ImportResult{
		Collection:   coll,
		RequestCount: coll.CountRequests(),
		SourceFormat: imp.Format(),
	}, nil
}
