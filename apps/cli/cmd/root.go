package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hitreq",
		Short: "One request, one answer.",
		Long: `hitreq sends a single HTTP request and prints the answer.

JSON bodies are encoded and decoded for you, query parameters keep the
order you give them, and any status outside 200-299 is reported as an
error with its status and body.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})

	for _, method := range requestMethods {
		root.AddCommand(newRequestCmd(method))
	}
	root.AddCommand(newCurlCmd())
	root.AddCommand(newBenchCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newVersionCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	os.Exit(run(newRootCmd(), os.Args[1:]))
}

// run executes root with args and returns the process exit code.
func run(root *cobra.Command, args []string) int {
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return ExitSuccess
	}

	if !isReported(err) {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
	}
	return exitCodeFor(err)
}
