package ports

import (
	"context"

	"traxiv/internal/domain"
)

// PreprintSource streams preprint-to-publication links from a publisher
// feed. The yield callback receives each record as its page is parsed;
// returning an error from yield aborts the stream.
type PreprintSource interface {
	Stream(ctx context.Context, prefix, start, end string, yield func(domain.PreprintRecord) error) error
}

// AnnotationStore performs create/search/delete against the remote
// annotation service.
type AnnotationStore interface {
	Search(ctx context.Context, uri string) ([]domain.PostedAnnotation, error)
	SearchTag(ctx context.Context, groupID, tag string, limit int) ([]domain.PostedAnnotation, error)
	Post(ctx context.Context, perms domain.Permissions, groupID string, target domain.Target, draft domain.Draft) (domain.PostedAnnotation, error)
	Delete(ctx context.Context, id string) (bool, error)
	GroupID(ctx context.Context, name, documentURI string) (string, error)
}

// Resolver maps a DOI to the page it resolves to.
type Resolver interface {
	Resolve(ctx context.Context, doi string) (string, error)
	PageTitle(ctx context.Context, pageURL string) (string, error)
}

// ReviewLinkSource builds the link to a paper's review process file.
// An empty link means no file is available for that journal/doi.
type ReviewLinkSource interface {
	ReviewProcessLink(ctx context.Context, journal, doi string) (string, error)
}

// RenderFunc produces the annotation draft for one record. A campaign
// selects its renderer and injects it into the driver.
type RenderFunc func(rec domain.PreprintRecord, rpfLink string) (domain.Draft, error)
