package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traxiv/internal/domain"
	"traxiv/internal/render"
)

// fakeSource replays a fixed record set per prefix.
type fakeSource struct {
	records map[string][]domain.PreprintRecord
	err     error
}

func (s *fakeSource) Stream(ctx context.Context, prefix, start, end string, yield func(domain.PreprintRecord) error) error {
	for _, rec := range s.records[prefix] {
		if err := yield(rec); err != nil {
			return err
		}
	}
	return s.err
}

// fakeStore persists posted annotations in memory so re-runs observe
// earlier posts.
type fakeStore struct {
	byURI        map[string][]domain.PostedAnnotation
	tagged       []domain.PostedAnnotation
	posts        int
	rejectPosts  bool
	failDeleteID string
	deleted      []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{byURI: map[string][]domain.PostedAnnotation{}}
}

func (s *fakeStore) Search(_ context.Context, uri string) ([]domain.PostedAnnotation, error) {
	return s.byURI[uri], nil
}

func (s *fakeStore) SearchTag(_ context.Context, groupID, tag string, limit int) ([]domain.PostedAnnotation, error) {
	if limit > 0 && len(s.tagged) > limit {
		return s.tagged[:limit], nil
	}
	return s.tagged, nil
}

func (s *fakeStore) Post(_ context.Context, _ domain.Permissions, groupID string, target domain.Target, draft domain.Draft) (domain.PostedAnnotation, error) {
	if s.rejectPosts {
		return domain.PostedAnnotation{}, fmt.Errorf("store rejected the write")
	}
	s.posts++
	posted := domain.PostedAnnotation{
		ID:     fmt.Sprintf("ann-%d", s.posts),
		URI:    target.URL,
		Tags:   draft.Tags,
		Group:  groupID,
		Target: target,
	}
	s.byURI[target.URL] = append(s.byURI[target.URL], posted)
	return posted, nil
}

func (s *fakeStore) Delete(_ context.Context, id string) (bool, error) {
	if id == s.failDeleteID {
		return false, fmt.Errorf("store refused to delete %s", id)
	}
	s.deleted = append(s.deleted, id)
	return true, nil
}

func (s *fakeStore) GroupID(_ context.Context, name, _ string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("group name is empty")
	}
	return "grp1", nil
}

// fakeResolver derives deterministic preprint URLs without touching the
// network.
type fakeResolver struct{}

func (fakeResolver) Resolve(_ context.Context, doi string) (string, error) {
	return "https://www.biorxiv.org/content/" + doi, nil
}

func (fakeResolver) PageTitle(context.Context, string) (string, error) {
	return "Fetched Title", nil
}

// fakeLinks serves a constant review link for every known journal.
type fakeLinks struct {
	missing map[string]bool
}

func (l fakeLinks) ReviewProcessLink(_ context.Context, journal, doi string) (string, error) {
	if l.missing[doi] {
		return "", nil
	}
	return "https://rpf.example.org/" + doi + ".pdf", nil
}

func testReconciler(source *fakeSource, store *fakeStore) *Reconciler {
	campaign := render.Campaign{
		Template: "Reviewed: $rpf_link for $paper_doi",
		Tag:      "PeerReviewed",
	}
	return NewReconciler(ReconcilerDeps{
		Source:   source,
		Store:    store,
		Resolver: fakeResolver{},
		Links:    fakeLinks{},
		Render:   campaign.Renderer(),
		Permissions: func(groupID string) domain.Permissions {
			return domain.Permissions{Read: []string{"group:" + groupID}}
		},
	})
}

func emboRecord(n int) domain.PreprintRecord {
	return domain.PreprintRecord{
		PreprintDOI:  fmt.Sprintf("10.1101/%03d", n),
		PublishedDOI: fmt.Sprintf("10.15252/embj.%03d", n),
		Journal:      "The EMBO Journal",
		Category:     "Cell Biology",
		Title:        fmt.Sprintf("Preprint %d", n),
	}
}

func runParams() RunParams {
	return RunParams{
		Prefixes: []string{"10.15252"},
		Journals: []string{"The EMBO Journal"},
		Start:    "2019-01-01",
		End:      "2019-06-30",
		Group:    "Test Group",
	}
}

func TestRunPostsFilteredRecords(t *testing.T) {
	t.Parallel()

	source := &fakeSource{records: map[string][]domain.PreprintRecord{
		"10.15252": {emboRecord(1), emboRecord(2)},
	}}
	store := newFakeStore()

	report, err := testReconciler(source, store).Run(context.Background(), runParams())
	require.NoError(t, err)

	assert.Equal(t, Report{Fetched: 2, Posted: 2}, report)
	assert.Equal(t, 2, store.posts)
	assert.True(t, report.Clean())
}

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	source := &fakeSource{records: map[string][]domain.PreprintRecord{
		"10.15252": {emboRecord(1), emboRecord(2)},
	}}
	store := newFakeStore()
	reconciler := testReconciler(source, store)

	first, err := reconciler.Run(context.Background(), runParams())
	require.NoError(t, err)
	require.Equal(t, 2, first.Posted)

	// The store double persists state, so a second overlapping run must
	// create nothing new.
	second, err := reconciler.Run(context.Background(), runParams())
	require.NoError(t, err)

	assert.Equal(t, 0, second.Posted)
	assert.Equal(t, 2, second.Skipped)
	assert.Equal(t, 2, store.posts)
}

func TestRunDropsMismatchesAndUnpublished(t *testing.T) {
	t.Parallel()

	// One record never published, one published in a journal outside the
	// allow-list: nothing gets posted.
	source := &fakeSource{records: map[string][]domain.PreprintRecord{
		"10.15252": {
			{PreprintDOI: "10.1101/001", Journal: "B"},
			{PreprintDOI: "10.1101/002", PublishedDOI: "10.15252/a.1", Journal: "A"},
		},
	}}
	store := newFakeStore()

	params := runParams()
	params.Journals = []string{"B"}

	report, err := testReconciler(source, store).Run(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, Report{Fetched: 2, Dropped: 2}, report)
	assert.Equal(t, 0, store.posts)
}

func TestRunDropsRecordsWithoutReviewFile(t *testing.T) {
	t.Parallel()

	source := &fakeSource{records: map[string][]domain.PreprintRecord{
		"10.15252": {emboRecord(1), emboRecord(2)},
	}}
	store := newFakeStore()

	campaign := render.Campaign{Template: "$rpf_link", Tag: "PeerReviewed"}
	reconciler := NewReconciler(ReconcilerDeps{
		Source:   source,
		Store:    store,
		Resolver: fakeResolver{},
		Links:    fakeLinks{missing: map[string]bool{"10.15252/embj.001": true}},
		Render:   campaign.Renderer(),
		Permissions: func(string) domain.Permissions {
			return domain.Permissions{}
		},
	})

	report, err := reconciler.Run(context.Background(), runParams())
	require.NoError(t, err)

	assert.Equal(t, Report{Fetched: 2, Dropped: 1, Posted: 1}, report)
}

func TestRunContinuesPastRecordFailures(t *testing.T) {
	t.Parallel()

	source := &fakeSource{records: map[string][]domain.PreprintRecord{
		"10.15252": {emboRecord(1), emboRecord(2)},
	}}
	store := newFakeStore()
	store.rejectPosts = true

	report, err := testReconciler(source, store).Run(context.Background(), runParams())
	require.NoError(t, err)

	assert.Equal(t, Report{Fetched: 2, Failed: 2}, report)
	assert.False(t, report.Clean())
}

func TestRunAbortsOnFeedFailure(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		records: map[string][]domain.PreprintRecord{"10.15252": {emboRecord(1)}},
		err:     fmt.Errorf("feed unavailable"),
	}
	store := newFakeStore()

	report, err := testReconciler(source, store).Run(context.Background(), runParams())
	require.Error(t, err)

	// The record yielded before the failure was still processed.
	assert.Equal(t, 1, report.Posted)
}

func TestRunRenderFailureIsPerRecord(t *testing.T) {
	t.Parallel()

	source := &fakeSource{records: map[string][]domain.PreprintRecord{
		"10.15252": {emboRecord(1), emboRecord(2)},
	}}
	store := newFakeStore()

	campaign := render.Campaign{Template: "$unbound", Tag: "PeerReviewed"}
	reconciler := NewReconciler(ReconcilerDeps{
		Source:   source,
		Store:    store,
		Resolver: fakeResolver{},
		Links:    fakeLinks{},
		Render:   campaign.Renderer(),
		Permissions: func(string) domain.Permissions {
			return domain.Permissions{}
		},
	})

	report, err := reconciler.Run(context.Background(), runParams())
	require.NoError(t, err)
	assert.Equal(t, Report{Fetched: 2, Failed: 2}, report)
}

func TestRunCancelledBetweenRecords(t *testing.T) {
	t.Parallel()

	source := &fakeSource{records: map[string][]domain.PreprintRecord{
		"10.15252": {emboRecord(1), emboRecord(2)},
	}}
	store := newFakeStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testReconciler(source, store).Run(ctx, runParams())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, store.posts)
}

func TestPurge(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.tagged = []domain.PostedAnnotation{
		{ID: "ann-1", Tags: []string{"PeerReviewed"}},
		{ID: "ann-2", Tags: []string{"PeerReviewed"}},
		{ID: "ann-3", Tags: []string{"PeerReviewed"}},
	}
	store.failDeleteID = "ann-2"

	reconciler := testReconciler(&fakeSource{}, store)
	report, err := reconciler.Purge(context.Background(), PurgeParams{
		Group: "Test Group",
		Tag:   "PeerReviewed",
		Limit: 200,
	})
	require.NoError(t, err)

	assert.Equal(t, PurgeReport{Found: 3, Deleted: 2, Failed: 1}, report)
	assert.Equal(t, []string{"ann-1", "ann-3"}, store.deleted)
	assert.False(t, report.Clean())
}

func TestPurgeHonorsLimit(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	for i := 0; i < 5; i++ {
		store.tagged = append(store.tagged, domain.PostedAnnotation{ID: fmt.Sprintf("ann-%d", i)})
	}

	reconciler := testReconciler(&fakeSource{}, store)
	report, err := reconciler.Purge(context.Background(), PurgeParams{Group: "Test Group", Tag: "PeerReviewed", Limit: 3})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Found)
	assert.Equal(t, 3, report.Deleted)
}
