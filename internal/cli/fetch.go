package cli

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"traxiv/internal/config"
	"traxiv/internal/infrastructure/biorxiv"
)

// NewFetchCommand creates the fetch command: a plain listing of the
// publisher feed, useful for inspecting what a post run would cover.
func NewFetchCommand(cfg config.Config, rootOpts *RootOptions) *cobra.Command {
	var (
		start string
		end   string
	)

	cmd := &cobra.Command{
		Use:   "fetch <prefix>",
		Short: "List published preprints for a publisher doi prefix",
		Long: `Pages through the bioRxiv publisher feed for one doi prefix and
prints each published preprint as a TSV line.

Example:
  traxiv fetch 10.15252 --start 2019-01-01 --end 2019-12-31`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cfg, rootOpts)

			source := biorxiv.NewClient(biorxiv.ClientOptions{
				BaseURL:           cfg.Feed.BaseURL,
				HTTPClient:        &http.Client{Timeout: cfg.Feed.Timeout()},
				Retries:           cfg.Feed.Retries,
				RequestsPerSecond: cfg.Feed.RequestsPerSecond,
				Logger:            logger.With("component", "biorxiv"),
			})

			records, err := source.Fetch(cmd.Context(), args[0], start, end)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "biorxiv_doi\tpublished_doi\tjournal\tcategory")
			for _, rec := range records {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", rec.PreprintDOI, rec.PublishedDOI, rec.Journal, rec.Category)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "2019-01-01", "start of the bioRxiv posting date range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", time.Now().Format("2006-01-02"), "end of the bioRxiv posting date range (YYYY-MM-DD)")

	return cmd
}
