package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"traxiv/internal/domain"
	"traxiv/internal/ports"
)

// ReconcilerDeps wires all driven adapters into the orchestration driver.
type ReconcilerDeps struct {
	Source      ports.PreprintSource
	Store       ports.AnnotationStore
	Resolver    ports.Resolver
	Links       ports.ReviewLinkSource
	Render      ports.RenderFunc
	Permissions func(groupID string) domain.Permissions
	Logger      *slog.Logger
}

// Reconciler drives the preprint-to-annotation pipeline: stream, filter,
// check-before-post, render, post. Re-running it over an overlapping date
// range creates no duplicate annotations, because existence is re-derived
// from the store on every record.
type Reconciler struct {
	source      ports.PreprintSource
	store       ports.AnnotationStore
	resolver    ports.Resolver
	links       ports.ReviewLinkSource
	render      ports.RenderFunc
	permissions func(groupID string) domain.Permissions
	logger      *slog.Logger
}

// NewReconciler constructs the orchestration component.
func NewReconciler(deps ReconcilerDeps) *Reconciler {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reconciler{
		source:      deps.Source,
		store:       deps.Store,
		resolver:    deps.Resolver,
		links:       deps.Links,
		render:      deps.Render,
		permissions: deps.Permissions,
		logger:      deps.Logger,
	}
}

// RunParams selects what one reconciliation run covers.
type RunParams struct {
	Prefixes []string
	Journals []string
	Start    string
	End      string
	Group    string
	ScopeURI string
}

// Report summarizes a run. Fetched counts records the feed yielded;
// Dropped covers journal mismatches and papers without a review process
// file; Skipped means an annotation already existed.
type Report struct {
	Fetched int
	Dropped int
	Skipped int
	Posted  int
	Failed  int
}

// Clean reports whether the run finished without per-record failures.
func (r Report) Clean() bool {
	return r.Failed == 0
}

// Run processes every published preprint in the date range. Per-record
// failures are logged and counted, never fatal; a feed failure aborts the
// run with the partial report.
func (r *Reconciler) Run(ctx context.Context, params RunParams) (Report, error) {
	var report Report

	groupID, err := r.store.GroupID(ctx, params.Group, params.ScopeURI)
	if err != nil {
		return report, fmt.Errorf("resolve group %q: %w", params.Group, err)
	}
	r.logger.Info("resolved group", "group", params.Group, "group_id", groupID)

	perms := r.permissions(groupID)
	allowed := domain.NewJournalAllowList(params.Journals)

	for _, prefix := range params.Prefixes {
		r.logger.Info("retrieving preprints", "prefix", prefix, "start", params.Start, "end", params.End)

		err := r.source.Stream(ctx, prefix, params.Start, params.End, func(rec domain.PreprintRecord) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			report.Fetched++
			if !allowed.Match(rec) {
				report.Dropped++
				return nil
			}

			status, recErr := r.processRecord(ctx, rec, groupID, perms)
			switch {
			case recErr != nil:
				report.Failed++
				r.logger.Error("record failed",
					"preprint_doi", rec.PreprintDOI,
					"published_doi", rec.PublishedDOI,
					"error", recErr)
			case status == domain.StatusPosted:
				report.Posted++
			case status == domain.StatusSkipped:
				report.Skipped++
			default:
				report.Dropped++
			}
			return nil
		})
		if err != nil {
			return report, err
		}
	}

	r.logger.Info("run finished",
		"fetched", report.Fetched,
		"dropped", report.Dropped,
		"skipped", report.Skipped,
		"posted", report.Posted,
		"failed", report.Failed)
	return report, nil
}

func (r *Reconciler) processRecord(ctx context.Context, rec domain.PreprintRecord, groupID string, perms domain.Permissions) (domain.RunStatus, error) {
	rpfLink, err := r.links.ReviewProcessLink(ctx, rec.Journal, rec.PublishedDOI)
	if err != nil {
		return domain.StatusFailed, fmt.Errorf("review process link: %w", err)
	}
	if rpfLink == "" {
		r.logger.Debug("no review process file", "published_doi", rec.PublishedDOI, "journal", rec.Journal)
		return domain.StatusDropped, nil
	}

	targetURL, err := r.resolver.Resolve(ctx, rec.PreprintDOI)
	if err != nil {
		return domain.StatusFailed, fmt.Errorf("resolve preprint: %w", err)
	}

	existing, err := r.store.Search(ctx, targetURL)
	if err != nil {
		return domain.StatusFailed, fmt.Errorf("search existing: %w", err)
	}
	for _, ann := range existing {
		if ann.Group == "" || ann.Group == groupID {
			r.logger.Debug("annotation already present", "preprint_doi", rec.PreprintDOI, "annotation_id", ann.ID)
			return domain.StatusSkipped, nil
		}
	}

	title := rec.Title
	if title == "" {
		// Feed records occasionally lack the preprint title.
		if fetched, titleErr := r.resolver.PageTitle(ctx, targetURL); titleErr == nil {
			title = fetched
		}
	}

	draft, err := r.render(rec, rpfLink)
	if err != nil {
		return domain.StatusFailed, fmt.Errorf("render draft: %w", err)
	}

	target := domain.Target{URL: targetURL, DOI: rec.PreprintDOI, Title: title}
	posted, err := r.store.Post(ctx, perms, groupID, target, draft)
	if err != nil {
		return domain.StatusFailed, fmt.Errorf("post annotation: %w", err)
	}

	r.logger.Info("annotation posted", "preprint_doi", rec.PreprintDOI, "annotation_id", posted.ID)
	return domain.StatusPosted, nil
}
