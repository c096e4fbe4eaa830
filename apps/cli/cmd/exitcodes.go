package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/abdul-hamid-achik/hitreq/packages/schema"
	"github.com/spf13/cobra"
)

// Exit codes for hitreq CLI
const (
	// ExitSuccess indicates a 2xx response
	ExitSuccess = 0

	// ExitStatusError indicates a response status outside 200-299
	ExitStatusError = 1

	// ExitParseError indicates an unparsable body, a failed schema check or
	// a query with no value
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error or a timeout
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries an explicit exit code. reported is set once the error
// has been rendered to the user.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func usageError(err error) error {
	return &exitError{code: ExitUsageError, err: err}
}

// configError tags err with ExitConfigError unless it already carries a code.
func configError(err error) error {
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	return &exitError{code: ExitConfigError, err: err}
}

// reported marks err as already shown to the user.
func reported(err error) error {
	return reportedWithCode(exitCodeFor(err), err)
}

func reportedWithCode(code int, err error) error {
	return &exitError{code: code, err: err, reported: true}
}

func isReported(err error) bool {
	var ee *exitError
	return errors.As(err, &ee) && ee.reported
}

// usageArgs wraps a cobra argument validator so its failures exit with
// ExitUsageError.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

func exitCodeFor(err error) int {
	var (
		ee           *exitError
		clientErr    *http.ClientError
		parseErr     *http.ParseError
		validateErr  *schema.ValidationError
		configErr    *http.ConfigError
		timeoutErr   *http.TimeoutError
		transportErr *http.TransportError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ee):
		return ee.code
	case errors.As(err, &clientErr):
		return ExitStatusError
	case errors.As(err, &parseErr), errors.As(err, &validateErr):
		return ExitParseError
	case errors.As(err, &configErr):
		return ExitConfigError
	case errors.As(err, &timeoutErr), errors.As(err, &transportErr):
		return ExitNetworkError
	default:
		return ExitStatusError
	}
}
