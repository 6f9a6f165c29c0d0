package cli

import (
	"context"
	"fmt"

	"github.com/artpar/workbench/internal/core"
	"github.com/artpar/workbench/internal/exporter"
	"github.com/spf13/cobra"
)

// NewRequestsCommand creates the requests command group.
func NewRequestsCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "requests",
		Aliases: []string{"r"},
		Short:   "Manage saved requests",
	}

	cmd.AddCommand(
		newRequestsAddCommand(root),
		newRequestsShowCommand(root),
		newRequestsMoveCommand(root),
		newRequestsRenameCommand(root),
		newRequestsDeleteCommand(root),
	)
	return cmd
}

func newRequestsAddCommand(root *RootOptions) *cobra.Command {
	var name string
	var headers []string
	var body string

	cmd := &cobra.Command{
		Use:   "add COLLECTION_ID METHOD URL",
		Short: "Save a new request into a collection",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, root, func(ctx context.Context, ws *workspace) error {
				sessions := ws.app.Sessions()
				tab := sessions.NewTab()
				if _, err := sessions.SetMethod(tab.ID, args[1]); err != nil {
					return err
				}
				rows := parseHeaders(headers)
				if _, err := sessions.Edit(tab.ID, func(def *core.RequestDefinition) {
					def.SetURL(args[2])
					def.SetHeaders(rows)
					if body != "" {
						def.SetBody(core.BodySpec{Kind: bodyKindFor(rows, body), Raw: body})
					}
				}); err != nil {
					return err
				}
				if name == "" {
					name = args[1] + " " + args[2]
				}

				saved, err := ws.app.SaveTabAs(ctx, tab.ID, args[0], name)
				if !saved.IsLinked() {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %q [%s]\n", saved.Draft.Name(), saved.LinkedDefinitionID)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Request name (default: METHOD URL)")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Request headers (format: Key:Value)")
	cmd.Flags().StringVarP(&body, "body", "d", "", "Request body")
	return cmd
}

func newRequestsShowCommand(root *RootOptions) *cobra.Command {
	var asCurl bool
	var pretty bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Print a saved request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, root, func(ctx context.Context, ws *workspace) error {
				def, err := ws.app.Tree().GetRequest(args[0])
				if err != nil {
					return err
				}
				if asCurl {
					curl := &exporter.CurlExporter{Pretty: pretty}
					fmt.Fprintln(cmd.OutOrStdout(), curl.ExportRequest(def, ws.app.Environment()))
					return nil
				}
				return printYAML(cmd.OutOrStdout(), definitionView(def))
			})
		},
	}

	cmd.Flags().BoolVar(&asCurl, "curl", false, "Print the compiled request as a curl command")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "With --curl, put each flag on its own line")
	return cmd
}

func newRequestsMoveCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move ID COLLECTION_ID",
		Short: "Move a request to the end of another collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, root, func(ctx context.Context, ws *workspace) error {
				from, ok := ws.app.Tree().FindRequestOwner(args[0])
				if !ok {
					return core.NewNotFoundError("request", args[0])
				}
				if err := ws.app.Tree().MoveRequest(ctx, args[0], from, args[1]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Moved")
				return nil
			})
		},
	}
}

func newRequestsRenameCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename ID NAME",
		Short: "Rename a request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, root, func(ctx context.Context, ws *workspace) error {
				def, err := ws.app.Tree().RenameRequest(ctx, args[0], args[1])
				if def == nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed to %q\n", def.Name())
				return err
			})
		},
	}
}

func newRequestsDeleteCommand(root *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a saved request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return ErrConfirmationRequired
			}
			return withWorkspace(cmd, root, func(ctx context.Context, ws *workspace) error {
				if err := ws.app.Tree().DeleteRequest(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Deleted")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the deletion")
	return cmd
}
