package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"traxiv/internal/config"
	"traxiv/internal/usecase"
)

// NewPostCommand creates the post command: retrieve, filter, reconcile.
func NewPostCommand(cfg config.Config, rootOpts *RootOptions) *cobra.Command {
	var (
		prefixes []string
		journals []string
		start    string
		end      string
		group    string
	)

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post review-process annotations for published preprints",
		Long: `Retrieves preprints posted on bioRxiv within a date range that were
published by the configured publishers, and posts an annotation on each
preprint page linking to the paper's review process file. Preprints that
already carry an annotation in the group are skipped, so re-running over
an overlapping range is safe.

Example:
  traxiv post --group "EMBO Press" --start 2019-01-01 --end 2019-06-30`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cfg, rootOpts)

			reconciler, err := buildReconciler(cfg, logger)
			if err != nil {
				return err
			}

			report, err := reconciler.Run(cmd.Context(), usecase.RunParams{
				Prefixes: prefixes,
				Journals: journals,
				Start:    start,
				End:      end,
				Group:    group,
				ScopeURI: cfg.Campaign.ScopeURI,
			})

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "fetched: %d\ndropped: %d\nskipped: %d\nposted: %d\nfailed: %d\n",
				report.Fetched, report.Dropped, report.Skipped, report.Posted, report.Failed)

			if err != nil {
				return err
			}
			if !report.Clean() {
				return fmt.Errorf("%d records failed", report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&prefixes, "prefixes", cfg.Defaults.Prefixes, "publisher doi prefixes to retrieve preprints for")
	cmd.Flags().StringSliceVar(&journals, "journals", cfg.Defaults.Journals, "journal names to keep (exact match)")
	cmd.Flags().StringVar(&start, "start", "2019-01-01", "start of the bioRxiv posting date range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", time.Now().Format("2006-01-02"), "end of the bioRxiv posting date range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&group, "group", cfg.Defaults.Group, "name of the hypothes.is group to post into")

	return cmd
}
