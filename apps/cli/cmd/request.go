package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/hitreq/packages/assertions"
	"github.com/abdul-hamid-achik/hitreq/packages/capture"
	"github.com/abdul-hamid-achik/hitreq/packages/core/config"
	"github.com/abdul-hamid-achik/hitreq/packages/core/env"
	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/abdul-hamid-achik/hitreq/packages/log"
	"github.com/abdul-hamid-achik/hitreq/packages/output"
	"github.com/abdul-hamid-achik/hitreq/packages/schema"
	"github.com/spf13/cobra"
)

var requestMethods = []string{"GET", "POST", "PUT", "DELETE"}

type requestOptions struct {
	method string

	params     []string
	headers    []string
	data       string
	form       []string
	raw        bool
	include    bool
	timeout    string
	configFile string
	query      string
	schemaFile string
	expects    []string
	output     string
	verbose    int
	noColor    bool
	requestID  bool
	insecure   bool
	noFollow   bool
	proxy      string
	baseURL    string
	envFile    string
	vars       []string

	snapshotFile   string
	snapshotName   string
	updateSnapshot bool
}

func newRequestCmd(method string) *cobra.Command {
	opts := &requestOptions{method: method}
	name := strings.ToLower(method)

	cmd := &cobra.Command{
		Use:   name + " <url>",
		Short: fmt.Sprintf("Send a %s request", method),
		Long: fmt.Sprintf(`Send a single %[1]s request and print the response body.

Statuses outside 200-299 print the response and exit with code 1.

Examples:
  hitreq %[2]s https://api.example.com/users/1
  hitreq %[2]s /users -p page=2 -p size=10 --base-url https://api.example.com
  hitreq %[2]s https://api.example.com/users -d '{"name":"ada"}' -H 'X-Trace: 1'
  hitreq %[2]s https://api.example.com/login -f user=ada -f pass={{$API_PASS}}
  hitreq %[2]s https://api.example.com/users/1 -q body.name
  hitreq %[2]s https://api.example.com/users/1 --schema user.schema.json -i
  hitreq %[2]s https://api.example.com/users/9 -e 'status == 404' -e 'body.error exists'
  hitreq %[2]s https://api.example.com/users/1 --snapshot api.snap.json --update-snapshot

With --expect or --snapshot, those checks decide the exit code instead of
the status: a failed expectation or a snapshot mismatch exits with code 1,
otherwise the command succeeds.`, method, name),
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args[0])
		},
	}
	if method == "DELETE" {
		cmd.Aliases = []string{"del"}
	}

	opts.addFlags(cmd)
	opts.addResponseFlags(cmd)

	return cmd
}

// addResponseFlags registers the flags that check or print a single response.
func (o *requestOptions) addResponseFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.query, "query", "q", "", "Print only the value of a capture expression (status, header.X, body.path, duration)")
	f.StringVar(&o.schemaFile, "schema", "", "Validate the response body against a JSON Schema file")
	f.BoolVarP(&o.include, "include", "i", false, "Print the status line and headers")
	f.StringArrayVarP(&o.expects, "expect", "e", nil, "Expectation such as 'status == 201' or 'body.items length 3' (repeatable)")
	f.StringVar(&o.snapshotFile, "snapshot", "", "Compare status and body with a snapshot stored in this JSON file")
	f.StringVar(&o.snapshotName, "snapshot-name", "", "Snapshot name (default: method and path)")
	f.BoolVar(&o.updateSnapshot, "update-snapshot", false, "Write missing or changed snapshots instead of failing")
}

// addFlags registers the flags shared by every command that sends requests.
func (o *requestOptions) addFlags(cmd *cobra.Command) {
	f := cmd.Flags()

	// Request flags
	f.StringArrayVarP(&o.params, "param", "p", nil, "Query parameter as key=value (repeatable, order is kept)")
	f.StringArrayVarP(&o.headers, "header", "H", nil, "Request header as 'Name: value' (repeatable)")
	f.StringVarP(&o.data, "data", "d", "", "JSON request body, or @file to read it from a file")
	f.StringArrayVarP(&o.form, "form", "f", nil, "Form field as key=value (repeatable, urlencoded body)")
	f.StringVar(&o.baseURL, "base-url", getEnvString("HITREQ_BASE_URL", ""), "Base URL for relative request URLs (env: HITREQ_BASE_URL)")
	f.StringVar(&o.envFile, "env-file", getEnvString("HITREQ_ENV_FILE", ""), "Path to .env file for {{variable}} interpolation (env: HITREQ_ENV_FILE)")
	f.StringArrayVar(&o.vars, "var", nil, "Variable for {{variable}} interpolation as key=value (repeatable)")
	f.StringVar(&o.configFile, "config", getEnvString("HITREQ_CONFIG", ""), "Path to config file (env: HITREQ_CONFIG)")

	// Response flags
	f.BoolVar(&o.raw, "raw", getEnvBool("HITREQ_RAW", false), "Do not decode JSON responses (env: HITREQ_RAW)")

	// Output flags
	f.StringVarP(&o.output, "output", "o", getEnvString("HITREQ_OUTPUT", ""), "Output format: console, json (env: HITREQ_OUTPUT)")
	f.CountVarP(&o.verbose, "verbose", "v", "Log to stderr (-v, -vv, -vvv for more detail)")
	f.BoolVar(&o.noColor, "no-color", getEnvBool("HITREQ_NO_COLOR", false), "Disable colored output (env: HITREQ_NO_COLOR)")

	// Network flags
	f.StringVar(&o.timeout, "timeout", getEnvString("HITREQ_TIMEOUT", ""), "Request timeout (e.g., 30s, 1m) (env: HITREQ_TIMEOUT)")
	f.BoolVar(&o.requestID, "request-id", getEnvBool("HITREQ_REQUEST_ID", false), "Send a generated X-Request-ID header (env: HITREQ_REQUEST_ID)")
	f.BoolVarP(&o.insecure, "insecure", "k", getEnvBool("HITREQ_INSECURE", false), "Disable SSL certificate validation (env: HITREQ_INSECURE)")
	f.BoolVar(&o.noFollow, "no-follow", false, "Do not follow redirects")
	f.StringVar(&o.proxy, "proxy", getEnvString("HITREQ_PROXY", ""), "Proxy URL for HTTP requests (env: HITREQ_PROXY)")
}

func (o *requestOptions) run(cmd *cobra.Command, rawURL string) error {
	cfg, logger, err := o.setup()
	if err != nil {
		return err
	}
	formatter := o.formatter(cmd, cfg)

	reqCfg, target, err := o.target(rawURL, cfg)
	if err != nil {
		return err
	}

	expectations, err := o.expectations()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := http.NewClient(cfg.ClientOptions(logger.Logger)...)
	if err := o.authorize(ctx, client, cfg, reqCfg); err != nil {
		formatter.FormatError(err)
		return reported(err)
	}
	resp, err := client.Do(ctx, o.method, target, reqCfg)
	if err != nil {
		var clientErr *http.ClientError
		checked := len(expectations) > 0 || o.snapshotFile != ""
		if !checked || !errors.As(err, &clientErr) {
			formatter.FormatError(err)
			return reported(err)
		}
		resp = clientErr.Response
	}

	if o.schemaFile != "" {
		if err := schema.ValidateFile(o.schemaFile, resp.Raw); err != nil {
			formatter.FormatError(err)
			var validationErr *schema.ValidationError
			if !errors.As(err, &validationErr) {
				return reportedWithCode(ExitConfigError, err)
			}
			return reported(err)
		}
		log.Info().Str("schema", o.schemaFile).Msg("response matches schema")
	}

	if o.query != "" {
		value, err := capture.Extract(resp, o.query)
		if err != nil {
			formatter.FormatError(err)
			return reportedWithCode(ExitParseError, err)
		}
		formatter.FormatValue(value)
	} else {
		formatter.FormatResponse(resp)
	}

	if err := o.check(cmd, resp, expectations); err != nil {
		return err
	}
	return o.compareSnapshot(cmd, resp, target, reqCfg)
}

func (o *requestOptions) expectations() ([]*assertions.Assertion, error) {
	var list []*assertions.Assertion
	for _, expr := range o.expects {
		a, err := assertions.Parse(expr)
		if err != nil {
			return nil, usageError(err)
		}
		list = append(list, a)
	}
	return list, nil
}

// check evaluates expectations and reports failures on stderr.
func (o *requestOptions) check(cmd *cobra.Command, resp *http.Response, expectations []*assertions.Assertion) error {
	if len(expectations) == 0 {
		return nil
	}

	results := assertions.EvaluateAll(resp, expectations)
	for _, r := range results {
		log.Debug().Str("expect", r.Assertion.String()).Bool("passed", r.Passed).Msg("expectation")
	}

	failed := assertions.Failed(results)
	if len(failed) == 0 {
		return nil
	}
	for _, r := range failed {
		fmt.Fprintf(cmd.ErrOrStderr(), "Expectation failed: %s (%s)\n", r.Assertion, r.Message)
	}
	return reportedWithCode(ExitStatusError, fmt.Errorf("%d of %d expectations failed", len(failed), len(results)))
}

// setup loads the config and installs the logger.
func (o *requestOptions) setup() (*config.Config, *log.Logger, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, configError(err)
	}

	verbosity := o.verbose
	if verbosity == 0 && cfg.GetVerbose() {
		verbosity = 1
	}
	logger := log.NewConsole(cfg.GetNoColor(),
		log.WithLevel(log.LevelFromVerbosity(verbosity)),
		log.WithComponent("hitreq"),
	)
	log.SetGlobalLogger(logger)

	return cfg, logger, nil
}

// target resolves variables in the URL and request flags.
func (o *requestOptions) target(rawURL string, cfg *config.Config) (*http.Config, string, error) {
	resolver, err := o.resolver()
	if err != nil {
		return nil, "", configError(err)
	}

	reqCfg, err := o.requestConfig(resolver, cfg)
	if err != nil {
		return nil, "", configError(err)
	}
	return reqCfg, resolve(resolver, rawURL), nil
}

// loadConfig reads the config file and applies flag overrides on top.
func (o *requestOptions) loadConfig() (*config.Config, error) {
	fileConfig, err := config.LoadConfig(o.configFile)
	if err != nil {
		return nil, err
	}

	cli := &config.Config{
		BaseURL: o.baseURL,
		Proxy:   o.proxy,
		Output:  o.output,
	}
	if o.timeout != "" {
		timeout, err := time.ParseDuration(o.timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", o.timeout, err)
		}
		cli.Timeout = int(timeout.Milliseconds())
	}

	// Boolean flags only override when set
	if o.insecure {
		cli.ValidateSSL = config.BoolPtr(false)
	}
	if o.noFollow {
		cli.FollowRedirects = config.BoolPtr(false)
	}
	if o.raw {
		cli.JSON = config.BoolPtr(false)
	}
	if o.requestID {
		cli.RequestID = config.BoolPtr(true)
	}
	if o.noColor {
		cli.NoColor = config.BoolPtr(true)
	}

	cfg := fileConfig.Merge(cli)
	switch strings.ToLower(cfg.Output) {
	case "", "console", "json":
	default:
		return nil, fmt.Errorf("unknown output format %q (use console or json)", cfg.Output)
	}
	return cfg, nil
}

func (o *requestOptions) formatter(cmd *cobra.Command, cfg *config.Config) output.Formatter {
	if strings.EqualFold(cfg.Output, "json") {
		return output.NewJSONFormatter(output.WithJSONWriter(cmd.OutOrStdout()))
	}
	return output.NewConsoleFormatter(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithInclude(o.include),
		output.WithNoColor(cfg.GetNoColor()),
	)
}

func (o *requestOptions) resolver() (*env.Resolver, error) {
	var fileVars map[string]string
	if o.envFile != "" {
		vars, err := env.LoadDotEnv(o.envFile)
		if err != nil {
			return nil, err
		}
		fileVars = vars
	}

	flagVars := make(map[string]string, len(o.vars))
	for _, kv := range o.vars {
		k, v, err := splitPair(kv, "=", "--var")
		if err != nil {
			return nil, err
		}
		flagVars[k] = v
	}

	return env.NewResolver(fileVars, flagVars), nil
}

func (o *requestOptions) requestConfig(r *env.Resolver, cfg *config.Config) (*http.Config, error) {
	reqCfg := &http.Config{JSON: http.Bool(cfg.GetJSON())}

	for _, kv := range o.params {
		k, v, err := splitPair(resolve(r, kv), "=", "--param")
		if err != nil {
			return nil, err
		}
		reqCfg.Params = reqCfg.Params.Add(k, v)
	}

	for _, kv := range o.form {
		k, v, err := splitPair(resolve(r, kv), "=", "--form")
		if err != nil {
			return nil, err
		}
		reqCfg.Form = reqCfg.Form.Add(k, v)
	}

	if len(o.headers) > 0 {
		reqCfg.Headers = make(map[string]string, len(o.headers))
		for _, kv := range o.headers {
			k, v, err := splitPair(resolve(r, kv), ":", "--header")
			if err != nil {
				return nil, err
			}
			reqCfg.Headers[k] = strings.TrimSpace(v)
		}
	}

	if o.data != "" {
		data := o.data
		if path, ok := strings.CutPrefix(data, "@"); ok {
			content, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read --data file: %w", err)
			}
			data = string(content)
		}
		reqCfg.Body = resolve(r, data)
	}

	return reqCfg, nil
}

// resolve expands {{variables}} in s, warning about any it cannot expand.
func resolve(r *env.Resolver, s string) string {
	out, missing := r.Resolve(s)
	if len(missing) > 0 {
		log.Warn().Strs("variables", missing).Msg("unresolved variables")
	}
	return out
}

func splitPair(s, sep, flag string) (string, string, error) {
	k, v, ok := strings.Cut(s, sep)
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return "", "", usageError(fmt.Errorf("invalid %s value %q (expected key%svalue)", flag, s, sep))
	}
	return k, v, nil
}
