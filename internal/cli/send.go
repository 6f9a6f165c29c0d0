package cli

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/artpar/workbench/internal/core"
	"github.com/spf13/cobra"
)

// SendOptions holds options for the send command.
type SendOptions struct {
	Headers []string
	Body    string
	Timeout time.Duration
	Output  ResponseOutput
}

// NewSendCommand creates the send command.
func NewSendCommand(root *RootOptions) *cobra.Command {
	opts := &SendOptions{}

	cmd := &cobra.Command{
		Use:   "send METHOD URL",
		Short: "Send an HTTP request",
		Long: heredoc.Doc(`
			Send an HTTP request to the specified URL with the given method.
			Variables like {{base}} or ${token} are resolved from --env.
		`),
		Example: heredoc.Doc(`
			workbench send GET https://httpbin.org/get
			workbench send POST {{base}}/users -e local -d '{"name":"ann"}'
		`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root.timeout = opts.Timeout
			return withWorkspace(cmd, root, func(ctx context.Context, ws *workspace) error {
				return runSend(ctx, cmd, ws, strings.ToUpper(args[0]), args[1], opts)
			})
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Headers, "header", "H", nil, "Request headers (format: Key:Value)")
	cmd.Flags().StringVarP(&opts.Body, "body", "d", "", "Request body")
	cmd.Flags().BoolVar(&opts.Output.JSON, "json", false, "Output response as JSON")
	cmd.Flags().BoolVar(&opts.Output.Raw, "raw", false, "Print the body without formatting")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "Request timeout (default from config)")

	return cmd
}

func runSend(ctx context.Context, cmd *cobra.Command, ws *workspace, method, url string, opts *SendOptions) error {
	sessions := ws.app.Sessions()
	tab := sessions.Active()

	if _, err := sessions.SetMethod(tab.ID, method); err != nil {
		return err
	}
	headers := parseHeaders(opts.Headers)
	if _, err := sessions.Edit(tab.ID, func(def *core.RequestDefinition) {
		def.SetURL(url)
		def.SetHeaders(headers)
		if opts.Body != "" {
			def.SetBody(core.BodySpec{Kind: bodyKindFor(headers, opts.Body), Raw: opts.Body})
		}
	}); err != nil {
		return err
	}

	resp, err := ws.app.Send(ctx, tab.ID)
	if err != nil {
		return err
	}
	return printResponse(cmd.OutOrStdout(), resp, opts.Output)
}

// bodyKindFor derives the body kind from Content-Type, falling back to json
// for valid JSON and text otherwise. Form bodies given on the command line
// are already encoded and go out raw.
func bodyKindFor(headers core.KeyValueList, body string) core.BodyKind {
	if ct, ok := headers.Lookup("Content-Type"); ok {
		switch kind := core.BodyKindForContentType(ct.Value); kind {
		case core.BodyFormData, core.BodyURLEncoded:
			return core.BodyRaw
		default:
			return kind
		}
	}
	if json.Valid([]byte(body)) {
		return core.BodyJSON
	}
	return core.BodyText
}

// parseHeaders converts "Key: Value" strings to rows, keeping order and
// repeats.
func parseHeaders(headerStrs []string) core.KeyValueList {
	var headers core.KeyValueList
	for _, h := range headerStrs {
		idx := strings.Index(h, ":")
		if idx == -1 {
			continue
		}
		key := strings.TrimSpace(h[:idx])
		if key == "" {
			continue
		}
		headers.Append(key, strings.TrimSpace(h[idx+1:]))
	}
	return headers
}
