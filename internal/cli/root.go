package cli

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"traxiv/internal/config"
	"traxiv/internal/domain"
	"traxiv/internal/infrastructure/biorxiv"
	"traxiv/internal/infrastructure/doiorg"
	"traxiv/internal/infrastructure/hypothesis"
	"traxiv/internal/infrastructure/rpf"
	"traxiv/internal/logging"
	"traxiv/internal/render"
	"traxiv/internal/usecase"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the traxiv root command.
func NewRootCommand(cfg config.Config) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "traxiv",
		Short: "Links bioRxiv preprints to their published papers via hypothes.is annotations",
		Long: `traxiv retrieves preprints that a publisher has since published,
and posts a hypothes.is annotation on each preprint page linking to the
published paper's review process file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewPostCommand(cfg, opts))
	cmd.AddCommand(NewPurgeCommand(cfg, opts))
	cmd.AddCommand(NewFetchCommand(cfg, opts))

	return cmd
}

func newLogger(cfg config.Config, opts *RootOptions) *slog.Logger {
	level := cfg.Logging.Level
	if opts.Verbose {
		level = "debug"
	}
	return logging.New(level)
}

// buildReconciler wires the remote clients and the campaign renderer into
// the driver. Lifecycle is scoped to a single command invocation.
func buildReconciler(cfg config.Config, logger *slog.Logger) (*usecase.Reconciler, error) {
	if cfg.Hypothesis.User == "" || cfg.Hypothesis.APIKey == "" {
		return nil, fmt.Errorf("hypothes.is credentials missing (set HYPOTHESIS_USER and HYPOTHESIS_API_KEY)")
	}

	template, err := cfg.Campaign.BodyTemplate()
	if err != nil {
		return nil, fmt.Errorf("load campaign template: %w", err)
	}

	source := biorxiv.NewClient(biorxiv.ClientOptions{
		BaseURL:           cfg.Feed.BaseURL,
		HTTPClient:        &http.Client{Timeout: cfg.Feed.Timeout()},
		Retries:           cfg.Feed.Retries,
		RequestsPerSecond: cfg.Feed.RequestsPerSecond,
		Logger:            logger.With("component", "biorxiv"),
	})

	store := hypothesis.NewClient(hypothesis.ClientOptions{
		APIURL:            cfg.Hypothesis.APIURL,
		APIKey:            cfg.Hypothesis.APIKey,
		HTTPClient:        &http.Client{Timeout: cfg.Hypothesis.Timeout()},
		RequestsPerSecond: cfg.Hypothesis.RequestsPerSecond,
		Logger:            logger.With("component", "hypothesis"),
	})

	resolver := doiorg.NewResolver("", nil, cfg.Feed.Retries, logger.With("component", "doiorg"))
	links := rpf.NewGenerator(nil, resolver, logger.With("component", "rpf"))

	campaign := render.Campaign{
		Template:     template,
		Tag:          cfg.Campaign.Tag,
		PublisherTag: cfg.Campaign.PublisherTag,
		Banners:      cfg.Campaign.Banners,
	}

	user := cfg.Hypothesis.User
	return usecase.NewReconciler(usecase.ReconcilerDeps{
		Source:   source,
		Store:    store,
		Resolver: resolver,
		Links:    links,
		Render:   campaign.Renderer(),
		Permissions: func(groupID string) domain.Permissions {
			return hypothesis.NewPermissions(user, groupID)
		},
		Logger: logger.With("component", "reconciler"),
	}), nil
}
