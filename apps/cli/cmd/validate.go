package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/abdul-hamid-achik/hitreq/packages/schema"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <schema> <file>...",
		Short: "Validate JSON files against a JSON Schema",
		Long: `Validate saved JSON documents against a JSON Schema without sending a request.

Examples:
  hitreq validate user.schema.json user.json
  hitreq get https://api.example.com/users/1 --raw > user.json && hitreq validate user.schema.json user.json`,
		Args: usageArgs(cobra.MinimumNArgs(2)),
		RunE: validateCommand,
	}
}

func validateCommand(cmd *cobra.Command, args []string) error {
	schemaFile, files := args[0], args[1:]

	hasErrors := false
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return configError(err)
		}

		err = schema.ValidateFile(schemaFile, data)
		var validationErr *schema.ValidationError
		switch {
		case err == nil:
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
		case errors.As(err, &validationErr):
			fmt.Fprintf(cmd.ErrOrStderr(), "Invalid: %s\n", file)
			for _, msg := range validationErr.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", msg)
			}
			hasErrors = true
		default:
			return configError(err)
		}
	}

	if hasErrors {
		return reportedWithCode(ExitParseError, fmt.Errorf("validation failed"))
	}

	return nil
}
