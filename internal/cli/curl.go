package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/artpar/workbench/internal/core"
	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

// Clipboard access, swapped out in tests.
var (
	readClipboard  = clipboard.ReadAll
	writeClipboard = clipboard.WriteAll
)

// CurlOptions holds options for the curl command.
type CurlOptions struct {
	Clipboard bool
	Send      bool
	Save      string
	Name      string
	Output    ResponseOutput
}

// NewCurlCommand creates a command that parses a curl command into a draft.
func NewCurlCommand(root *RootOptions) *cobra.Command {
	opts := &CurlOptions{}

	cmd := &cobra.Command{
		Use:   "curl [flags] -- [curl arguments...]",
		Short: "Parse a curl command into a request",
		Long: heredoc.Doc(`
			Parse a curl command and print the request it describes. The command
			is taken from the arguments after --, from stdin when the only
			argument is "-", or from the clipboard with --clipboard.

			Default headers from the config are added when the command sets
			no headers of its own.
		`),
		Example: heredoc.Doc(`
			workbench curl -- https://httpbin.org/get
			workbench curl --send -- -X POST https://httpbin.org/post -H "Content-Type: application/json" -d '{"name": "test"}'
			workbench curl --clipboard --save 6f1c0d2e-... --name "Login"
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := curlText(cmd, args, opts.Clipboard)
			if err != nil {
				return err
			}
			return withWorkspace(cmd, root, func(ctx context.Context, ws *workspace) error {
				return runCurl(ctx, cmd, ws, text, opts)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Clipboard, "clipboard", false, "Read the curl command from the clipboard")
	cmd.Flags().BoolVar(&opts.Send, "send", false, "Send the parsed request")
	cmd.Flags().StringVar(&opts.Save, "save", "", "Save the parsed request into this collection id")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Name for the saved request (default: derived from the URL)")
	cmd.Flags().BoolVar(&opts.Output.JSON, "json", false, "Output the response as JSON")
	cmd.Flags().BoolVar(&opts.Output.Raw, "raw", false, "Print the response body without formatting")

	return cmd
}

// curlText assembles the command text from the chosen source.
func curlText(cmd *cobra.Command, args []string, fromClipboard bool) (string, error) {
	switch {
	case fromClipboard:
		text, err := readClipboard()
		if err != nil {
			return "", fmt.Errorf("failed to read clipboard: %w", err)
		}
		return text, nil
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	case len(args) == 0:
		return "", fmt.Errorf("no curl arguments provided")
	case len(args) == 1:
		// A single argument is a whole command pasted in quotes.
		if strings.HasPrefix(strings.TrimSpace(args[0]), "curl ") {
			return args[0], nil
		}
	}

	parts := args
	if parts[0] == "curl" {
		parts = parts[1:]
	}
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = quoteArg(p)
	}
	return "curl " + strings.Join(quoted, " "), nil
}

// quoteArg restores the quoting the shell removed.
func quoteArg(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"") {
		return s
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func runCurl(ctx context.Context, cmd *cobra.Command, ws *workspace, text string, opts *CurlOptions) error {
	out := cmd.OutOrStdout()

	tab, ok := ws.app.Sessions().ImportCurl(text)
	if !ok {
		return core.NewValidationError("curl", nil, "not a curl command with a URL")
	}
	if opts.Name != "" {
		if _, err := ws.app.Sessions().SetName(tab.ID, opts.Name); err != nil {
			return err
		}
	}

	if opts.Save != "" {
		saved, err := ws.app.SaveTabAs(ctx, tab.ID, opts.Save, "")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved %q as %s\n", saved.Draft.Name(), saved.LinkedDefinitionID)
	}

	if !opts.Send {
		if opts.Save != "" {
			return nil
		}
		state, err := ws.app.Sessions().Get(tab.ID)
		if err != nil {
			return err
		}
		view := definitionView(state.Draft)
		view.ID = ""
		return printYAML(out, view)
	}

	resp, err := ws.app.Send(ctx, tab.ID)
	if err != nil {
		return err
	}
	return printResponse(out, resp, opts.Output)
}
