package usecase

import (
	"context"
	"fmt"
)

// PurgeParams selects which annotations a purge removes: everything in
// the group carrying the campaign tag, up to Limit.
type PurgeParams struct {
	Group    string
	ScopeURI string
	Tag      string
	Limit    int
}

// PurgeReport summarizes a purge run.
type PurgeReport struct {
	Found   int
	Deleted int
	Failed  int
}

// Clean reports whether every found annotation was deleted.
func (r PurgeReport) Clean() bool {
	return r.Failed == 0
}

// Purge removes the annotations this system created in a group. Delete
// failures are accumulated and reported, never fatal: purge is
// best-effort cleanup and may race manual deletions.
func (r *Reconciler) Purge(ctx context.Context, params PurgeParams) (PurgeReport, error) {
	var report PurgeReport

	groupID, err := r.store.GroupID(ctx, params.Group, params.ScopeURI)
	if err != nil {
		return report, fmt.Errorf("resolve group %q: %w", params.Group, err)
	}

	annotations, err := r.store.SearchTag(ctx, groupID, params.Tag, params.Limit)
	if err != nil {
		return report, fmt.Errorf("search tagged annotations: %w", err)
	}

	report.Found = len(annotations)
	r.logger.Info("purging annotations", "group", params.Group, "tag", params.Tag, "found", report.Found)

	for _, ann := range annotations {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		deleted, err := r.store.Delete(ctx, ann.ID)
		if err != nil || !deleted {
			report.Failed++
			r.logger.Error("delete failed", "annotation_id", ann.ID, "error", err)
			continue
		}
		report.Deleted++
	}

	r.logger.Info("purge finished", "deleted", report.Deleted, "failed", report.Failed)
	return report, nil
}
