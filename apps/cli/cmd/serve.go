package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/hitreq/packages/log"
	"github.com/abdul-hamid-achik/hitreq/packages/mock"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	host    string
	port    int
	delay   string
	verbose int
	noColor bool
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a local echo server to try requests against",
		Long: `Start an HTTP echo server for trying out requests.

Routes:
  /echo            replies 200 with the method, path, query, headers and body it received
  /status/{{code}} replies with the given status (200-599)

Examples:
  hitreq serve
  hitreq serve --port 3000 --delay 100ms
  hitreq serve -vv`,
		Args: usageArgs(cobra.NoArgs),
		RunE: opts.run,
	}

	cmd.Flags().StringVar(&opts.host, "host", getEnvString("HITREQ_SERVE_HOST", "127.0.0.1"), "Interface to bind (env: HITREQ_SERVE_HOST)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", getEnvInt("HITREQ_SERVE_PORT", 3000), "Port to run the echo server on (env: HITREQ_SERVE_PORT)")
	cmd.Flags().StringVarP(&opts.delay, "delay", "d", "0", "Delay to add to all responses (e.g., 100ms, 1s)")
	cmd.Flags().CountVarP(&opts.verbose, "verbose", "v", "Log requests to stderr (-v, -vv for more detail)")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", getEnvBool("HITREQ_NO_COLOR", false), "Disable colored output (env: HITREQ_NO_COLOR)")

	return cmd
}

func (o *serveOptions) run(cmd *cobra.Command, args []string) error {
	var delay time.Duration
	if o.delay != "0" {
		var err error
		delay, err = time.ParseDuration(o.delay)
		if err != nil {
			return usageError(fmt.Errorf("invalid delay value %q: %w", o.delay, err))
		}
	}

	// The server logs each request at debug level, so a single -v shows them
	logger := log.NewConsole(o.noColor,
		log.WithLevel(log.LevelFromVerbosity(o.verbose+1)),
		log.WithComponent("serve"),
	)

	server := mock.NewEchoServer(
		mock.WithHost(o.host),
		mock.WithPort(o.port),
		mock.WithDelay(delay),
		mock.WithLogger(logger.Logger),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Echo server listening on %s\n", server.URL())
	for _, route := range server.GetRoutes() {
		fmt.Fprintf(out, "  %s%s\n", server.URL(), route.PathPattern)
	}

	<-ctx.Done()
	fmt.Fprintln(out, "\nShutting down echo server...")
	return server.Close()
}
