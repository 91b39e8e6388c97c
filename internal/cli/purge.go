package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"traxiv/internal/config"
	"traxiv/internal/usecase"
)

// NewPurgeCommand creates the purge command: remove every annotation this
// system posted into a group.
func NewPurgeCommand(cfg config.Config, rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "purge <group>",
		Short: "Delete the campaign's annotations from a hypothes.is group",
		Long: `Finds every annotation in the group carrying the campaign tag and
deletes it. Individual delete failures are counted and reported at the
end; purge never aborts midway.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cfg, rootOpts)

			reconciler, err := buildReconciler(cfg, logger)
			if err != nil {
				return err
			}

			report, err := reconciler.Purge(cmd.Context(), usecase.PurgeParams{
				Group:    args[0],
				ScopeURI: cfg.Campaign.ScopeURI,
				Tag:      cfg.Campaign.Tag,
				Limit:    limit,
			})

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "found: %d\ndeleted: %d\nfailed: %d\n", report.Found, report.Deleted, report.Failed)

			if err != nil {
				return err
			}
			if !report.Clean() {
				return fmt.Errorf("%d deletes failed", report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", cfg.Hypothesis.PurgeLimit, "maximum number of annotations deleted")

	return cmd
}
