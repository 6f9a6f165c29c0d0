package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/artpar/workbench/internal/exporter"
	"github.com/spf13/cobra"
)

// ExportOptions holds options for the export command.
type ExportOptions struct {
	Format    string
	Pretty    bool
	Clipboard bool
	Output    string
}

// NewExportCommand creates the export command.
func NewExportCommand(root *RootOptions) *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Export a request as curl or a collection as a file",
		Long: heredoc.Doc(`
			Export a saved request as a curl command, compiled against --env.
			When ID names a collection the whole collection is exported in
			--format (curl script or workbench YAML).
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, root, func(ctx context.Context, ws *workspace) error {
				content, err := exportContent(ctx, ws, args[0], opts)
				if err != nil {
					return err
				}
				return writeExport(cmd, content, opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", string(exporter.FormatCurl), "Collection format: curl or workbench")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "Put each curl flag on its own line")
	cmd.Flags().BoolVar(&opts.Clipboard, "clipboard", false, "Copy the result to the clipboard")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}

func exportContent(ctx context.Context, ws *workspace, id string, opts *ExportOptions) (string, error) {
	if def, err := ws.app.Tree().GetRequest(id); err == nil {
		curl := &exporter.CurlExporter{Pretty: opts.Pretty}
		return curl.ExportRequest(def, ws.app.Environment()), nil
	}

	format := exporter.Format(opts.Format)
	if format == exporter.FormatCurl {
		ws.app.Exporters().Register(&exporter.CurlExporter{Pretty: opts.Pretty})
	}
	result, err := ws.app.Export(ctx, format, id)
	if err != nil {
		return "", err
	}
	return string(result.Content), nil
}

func writeExport(cmd *cobra.Command, content string, opts *ExportOptions) error {
	if opts.Clipboard {
		if err := writeClipboard(content); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
	}
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", opts.Output, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", opts.Output)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), content)
	return nil
}
