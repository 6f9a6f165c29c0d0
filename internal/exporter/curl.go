package exporter

import (
	"context"
	"fmt"
	"strings"

	"github.com/artpar/workbench/internal/compiler"
	"github.com/artpar/workbench/internal/core"
)

// CurlExporter renders compiled requests as curl commands.
type CurlExporter struct {
	Pretty bool // Use line continuations for readability
}

// NewCurlExporter creates a new curl exporter.
func NewCurlExporter() *CurlExporter {
	return &CurlExporter{
		Pretty: true,
	}
}

func (c *CurlExporter) Name() string {
	return "curl command"
}

func (c *CurlExporter) Format() Format {
	return FormatCurl
}

func (c *CurlExporter) FileExtension() string {
	return ".sh"
}

// Export writes a shell script with one command per request, grouped by
// nested collection.
func (c *CurlExporter) Export(ctx context.Context, coll *core.Collection, env *core.Environment) ([]byte, error) {
	if coll == nil {
		return nil, ErrInvalidCollection
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "#!/bin/bash\n# Collection: %s\n\n", coll.Name())
	if err := c.exportCollection(ctx, &sb, coll, env, true); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

func (c *CurlExporter) exportCollection(ctx context.Context, sb *strings.Builder, coll *core.Collection, env *core.Environment, root bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !root {
		fmt.Fprintf(sb, "# === %s ===\n\n", coll.Name())
	}
	for _, req := range coll.Requests() {
		fmt.Fprintf(sb, "# %s\n", req.Name())
		sb.WriteString(c.ExportRequest(req, env))
		sb.WriteString("\n\n")
	}
	for _, sub := range coll.Collections() {
		if err := c.exportCollection(ctx, sb, sub, env, false); err != nil {
			return err
		}
	}
	return nil
}

// ExportRequest compiles req against env and renders it.
func (c *CurlExporter) ExportRequest(req *core.RequestDefinition, env *core.Environment) string {
	return c.ExportDescriptor(compiler.Compile(req, env))
}

// ExportDescriptor renders a compiled request. Auth is already folded into
// the headers by the compiler.
func (c *CurlExporter) ExportDescriptor(desc *core.DispatchDescriptor) string {
	parts := []string{"curl"}

	if desc.Method != core.MethodGet {
		parts = append(parts, "-X", desc.Method)
	}

	if desc.Headers != nil {
		for _, key := range desc.Headers.Keys() {
			for _, value := range desc.Headers.GetAll(key) {
				parts = append(parts, "-H", fmt.Sprintf("%s: %s", key, value))
			}
		}
	}

	if body := desc.Body; !body.IsEmpty() {
		if body.Kind == core.BodyFormData {
			for _, f := range body.Fields {
				parts = append(parts, "-F", f.Key+"="+f.Value)
			}
		} else {
			parts = append(parts, "--data-raw", body.Raw)
		}
	}

	// URL (always last)
	parts = append(parts, desc.URL)

	if c.Pretty {
		return formatPrettyCurl(parts)
	}
	return formatInlineCurl(parts)
}

func formatInlineCurl(parts []string) string {
	var result strings.Builder
	for i, part := range parts {
		if i > 0 {
			result.WriteString(" ")
		}
		result.WriteString(shellQuote(part))
	}
	return result.String()
}

// formatPrettyCurl puts each flag with its value, and the URL, on its own
// continuation line.
func formatPrettyCurl(parts []string) string {
	var result strings.Builder
	result.WriteString("curl")

	for i := 1; i < len(parts); i++ {
		result.WriteString(" \\\n  ")
		result.WriteString(shellQuote(parts[i]))
		if strings.HasPrefix(parts[i], "-") && i+1 < len(parts)-1 {
			i++
			result.WriteString(" ")
			result.WriteString(shellQuote(parts[i]))
		}
	}

	return result.String()
}

// shellQuote single-quotes s when it holds shell metacharacters.
func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n\"'$`\\!*?[]{}()<>|&;#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

var _ Exporter = (*CurlExporter)(nil)
