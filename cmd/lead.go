package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/store"
)

var leadCmd = &cobra.Command{
	Use:   "lead <identifier>",
	Short: "Show the most recently saved score for a business",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		return showLead(ctx, st, args[0], os.Stdout)
	},
}

// showLead writes the latest saved lead for id as JSON.
func showLead(ctx context.Context, st store.Store, id string, out io.Writer) error {
	lead, err := st.GetLatestLead(ctx, id)
	if err != nil {
		return eris.Wrap(err, "lead")
	}
	if lead == nil {
		return eris.Errorf("lead: %s has not been exported by any saved run", id)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(lead)
}

func init() {
	rootCmd.AddCommand(leadCmd)
}
