package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/artpar/workbench/internal/core"
	"github.com/artpar/workbench/internal/tree"
	"github.com/spf13/cobra"
)

// ErrConfirmationRequired is returned by delete commands run without --yes.
var ErrConfirmationRequired = errors.New("refusing to delete without --yes")

// NewCollectionsCommand creates the collections command group.
func NewCollectionsCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"c"},
		Short:   "Manage collections",
	}

	cmd.AddCommand(
		newCollectionsListCommand(root),
		newCollectionsCreateCommand(root),
		newCollectionsRenameCommand(root),
		newCollectionsDeleteCommand(root),
		newCollectionsDuplicateCommand(root),
	)
	return cmd
}

func newCollectionsListCommand(root *RootOptions) *cobra.Command {
	var filter string
	var fuzzy bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the collection tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, root, func(ctx context.Context, ws *workspace) error {
				var colls []*core.Collection
				switch {
				case strings.TrimSpace(filter) == "":
					colls = ws.app.Tree().Collections()
				case fuzzy:
					colls = ws.app.Tree().FilterWith(tree.FuzzyMatcher(filter))
				default:
					colls = ws.app.Tree().Filter(filter)
				}
				if len(colls) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No collections")
					return nil
				}
				for _, c := range colls {
					printCollection(cmd.OutOrStdout(), c, 0)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Only show names containing this text")
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "Match --filter as a fuzzy pattern")
	return cmd
}

func printCollection(out io.Writer, c *core.Collection, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(out, "%s%s  [%s]\n", indent, c.Name(), c.ID())
	for _, r := range c.Requests() {
		fmt.Fprintf(out, "%s  %-7s %s  [%s]\n", indent, r.Method(), r.Name(), r.ID())
	}
	for _, sub := range c.Collections() {
		printCollection(out, sub, depth+1)
	}
}

func newCollectionsCreateCommand(root *RootOptions) *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, root, func(ctx context.Context, ws *workspace) error {
				c, err := ws.app.Tree().CreateCollection(ctx, parent, args[0])
				if c == nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %q [%s]\n", c.Name(), c.ID())
				return err
			})
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "Parent collection id (default: top level)")
	return cmd
}

func newCollectionsRenameCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename ID NAME",
		Short: "Rename a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, root, func(ctx context.Context, ws *workspace) error {
				c, err := ws.app.Tree().RenameCollection(ctx, args[0], args[1])
				if c == nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed to %q\n", c.Name())
				return err
			})
		},
	}
}

func newCollectionsDeleteCommand(root *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a collection with everything in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return ErrConfirmationRequired
			}
			return withWorkspace(cmd, root, func(ctx context.Context, ws *workspace) error {
				if err := ws.app.Tree().DeleteCollection(ctx, args[0]); err != nil {
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

func newCollectionsDuplicateCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate ID",
		Short: "Copy a collection next to the original",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, root, func(ctx context.Context, ws *workspace) error {
				c, err := ws.app.Tree().DuplicateCollection(ctx, args[0])
				if c == nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %q [%s]\n", c.Name(), c.ID())
				return err
			})
		},
	}
}
