package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/artpar/workbench/internal/core"
	"github.com/spf13/cobra"
)

// NewEnvCommand creates the env command group.
func NewEnvCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage environments in the environment directory",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List environment names",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withWorkspace(cmd, root, func(ctx context.Context, ws *workspace) error {
					names, err := ws.envs.List(ctx)
					if err != nil {
						return err
					}
					for _, name := range names {
						fmt.Fprintln(cmd.OutOrStdout(), name)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "show NAME",
			Short: "Print the variables of an environment",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withWorkspace(cmd, root, func(ctx context.Context, ws *workspace) error {
					env, err := ws.envs.Get(ctx, args[0])
					if err != nil {
						return err
					}
					for _, k := range env.Names() {
						fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, env.GetVariable(k))
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "set NAME KEY=VALUE...",
			Short: "Set variables, creating the environment if needed",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withWorkspace(cmd, root, func(ctx context.Context, ws *workspace) error {
					env, err := ws.envs.Get(ctx, args[0])
					if errors.Is(err, core.ErrNotFound) {
						env, err = core.NewEnvironment(args[0]), nil
					}
					if err != nil {
						return err
					}
					for _, assignment := range args[1:] {
						key, value, ok := strings.Cut(assignment, "=")
						if !ok || strings.TrimSpace(key) == "" {
							return core.NewValidationError("variable", nil, "expected KEY=VALUE, got %q", assignment)
						}
						env.SetVariable(strings.TrimSpace(key), value)
					}
					return ws.envs.Save(ctx, env)
				})
			},
		},
	)
	return cmd
}
