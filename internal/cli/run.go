package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/artpar/workbench/internal/runner"
	"github.com/spf13/cobra"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Timeout time.Duration
	Output  ResponseOutput
}

// NewRunCommand creates the run command.
func NewRunCommand(root *RootOptions) *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run ID",
		Short: "Send a saved request, or every request of a collection",
		Long: heredoc.Doc(`
			Send a saved request and print its response. When ID names a
			collection every request in it, sub-collections included, is sent
			in order and a summary is printed.
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root.timeout = opts.Timeout
			return withWorkspace(cmd, root, func(ctx context.Context, ws *workspace) error {
				if _, err := ws.app.Tree().GetRequest(args[0]); err == nil {
					resp, err := ws.app.SendRequest(ctx, args[0])
					if err != nil {
						return err
					}
					return printResponse(cmd.OutOrStdout(), resp, opts.Output)
				}
				return runCollection(ctx, cmd, ws, args[0], opts)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Output.JSON, "json", false, "Output results as JSON")
	cmd.Flags().BoolVar(&opts.Output.Raw, "raw", false, "Print the body without formatting")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "Request timeout (default from config)")

	return cmd
}

func runCollection(ctx context.Context, cmd *cobra.Command, ws *workspace, collectionID string, opts *RunOptions) error {
	coll, err := ws.app.Tree().GetCollection(collectionID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	runOpts := []runner.Option{
		runner.WithEnvironment(ws.app.Environment()),
		runner.WithClientOptions(clientOptions(ws.cfg)...),
	}
	if !opts.Output.JSON {
		runOpts = append(runOpts, runner.WithProgressCallback(func(current, total int, result *runner.RunResult) {
			mark := "✓"
			if !result.IsSuccess() {
				mark = "✗"
			}
			fmt.Fprintf(out, "%s %s %s %d (%dms)\n", mark, result.Method, result.RequestName, result.Status, result.Duration.Milliseconds())
		}))
	}

	ws.logger.Debug("running collection", "collection", coll.Name(), "requests", coll.CountRequests())
	summary := runner.NewRunner(coll, runOpts...).Run(ctx)

	if opts.Output.JSON {
		if err := outputRunResultsJSON(out, summary); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Summary: %d/%d passed in %s\n", summary.Passed, summary.TotalRequests, formatDuration(summary.TotalDuration))
	}

	if !summary.IsSuccess() {
		return fmt.Errorf("%d of %d requests failed", summary.Failed, summary.Executed)
	}
	return nil
}

func outputRunResultsJSON(out io.Writer, summary *runner.RunSummary) error {
	results := make([]map[string]any, 0, len(summary.Results))
	for _, r := range summary.Results {
		result := map[string]any{
			"id":          r.RequestID,
			"name":        r.RequestName,
			"method":      r.Method,
			"url":         r.URL,
			"status":      r.Status,
			"status_text": r.StatusText,
			"duration_ms": r.Duration.Milliseconds(),
		}
		if r.Error != nil {
			result["error"] = r.Error.Error()
		}
		results = append(results, result)
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
