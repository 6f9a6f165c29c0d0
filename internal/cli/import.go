package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/artpar/workbench/internal/importer"
	"github.com/spf13/cobra"
)

// NewImportCommand creates the import command.
func NewImportCommand(root *RootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a collection file",
		Long:  "Import a curl command or a workbench YAML document as a new top-level collection. FILE may be - for stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			return withWorkspace(cmd, root, func(ctx context.Context, ws *workspace) error {
				coll, err := ws.app.Import(ctx, importer.Format(format), content)
				if coll == nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %q (%s): %d requests\n", coll.Name(), coll.ID(), coll.CountRequests())
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(importer.FormatAuto), "Input format: auto, curl or workbench")

	return cmd
}

// readInput reads a file, or stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
