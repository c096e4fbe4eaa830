package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/abdul-hamid-achik/hitreq/packages/log"
	"github.com/abdul-hamid-achik/hitreq/packages/snapshot"
	"github.com/spf13/cobra"
)

// compareSnapshot checks the response against --snapshot and reports a
// mismatch on stderr.
func (o *requestOptions) compareSnapshot(cmd *cobra.Command, resp *http.Response, target string, reqCfg *http.Config) error {
	if o.snapshotFile == "" {
		return nil
	}

	name := o.snapshotName
	if name == "" {
		if len(reqCfg.Params) > 0 {
			sep := "?"
			if strings.Contains(target, "?") {
				sep = "&"
			}
			target += sep + reqCfg.Params.Encode()
		}
		name = snapshot.Name(o.method, target)
	}

	result, err := snapshot.Open(o.snapshotFile, o.updateSnapshot).Compare(name, snapshot.Value(resp))
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return reportedWithCode(ExitConfigError, err)
	}

	switch {
	case result.IsNew, result.WasUpdated:
		fmt.Fprintf(cmd.ErrOrStderr(), "Snapshot %q: %s\n", name, result.Message)
	case result.Passed:
		log.Debug().Str("snapshot", name).Msg("snapshot matched")
	default:
		fmt.Fprintf(cmd.ErrOrStderr(), "Snapshot %q: %s\n", name, result.Message)
		for _, d := range result.Diffs {
			fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", d)
		}
		return reportedWithCode(ExitStatusError, errors.New(result.Message))
	}
	return nil
}
