package cmd

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/hitreq/packages/curl"
	"github.com/spf13/cobra"
)

type curlOptions struct {
	requestOptions
	print bool
}

func newCurlCmd() *cobra.Command {
	opts := &curlOptions{}

	cmd := &cobra.Command{
		Use:   "curl <curl command>",
		Short: "Send a request written as a curl command",
		Long: `Parse a curl command line and send it with hitreq.

Quote the whole curl command, or pass it after -- so its flags are not read
as hitreq flags. hitreq flags such as --query, --expect and --output apply
to the response as they do for get and post.

Supported curl options: -X, -H, -d/--data/--data-raw/--data-binary,
--data-urlencode, --json, -G, -I, -u, -A, -e, -b, -k, -L and --url.

Examples:
  hitreq curl "curl -X POST https://api.example.com/users -d '{\"name\":\"ada\"}'"
  hitreq curl -q body.id -- curl https://api.example.com/users/1 -H 'Accept: application/json'
  hitreq curl --print -- curl -u ada:pw https://api.example.com/me`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, strings.Join(args, " "))
		},
	}

	opts.addFlags(cmd)
	opts.addResponseFlags(cmd)
	cmd.Flags().BoolVar(&opts.print, "print", false, "Print the equivalent hitreq command instead of sending it")

	return cmd
}

func (o *curlOptions) run(cmd *cobra.Command, cmdline string) error {
	parsed, err := curl.Parse(cmdline)
	if err != nil {
		return usageError(err)
	}

	if o.print {
		if _, err := parsed.Args(); err != nil {
			return usageError(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), parsed.String())
		return nil
	}

	// Flags given to hitreq come after the curl options, so they win
	o.method = parsed.Method
	o.headers = append(parsed.HeaderLines(), o.headers...)
	for _, p := range parsed.Params {
		o.params = append(o.params, p.Key+"="+p.Value)
	}
	for _, p := range parsed.Form {
		o.form = append(o.form, p.Key+"="+p.Value)
	}
	if o.data == "" {
		o.data = parsed.Body
	}
	o.insecure = o.insecure || parsed.Insecure
	o.noFollow = o.noFollow || !parsed.FollowRedirects

	return o.requestOptions.run(cmd, parsed.URL)
}
