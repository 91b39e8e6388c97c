package rpf

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"traxiv/internal/ports"
)

// Review process files have no DOI of their own; their URLs follow
// per-journal conventions observed on the publisher sites.

const (
	emboPressBaseURL = "https://www.embopress.org"
	lsaBaseURL       = "https://www.life-science-alliance.org"
)

var (
	doiSuffixExpr = regexp.MustCompile(`^10\.\d{4,9}/([-_;()/:a-zA-Z0-9]+)\.([-_;()/:a-zA-Z0-9]+)$`)
	lsaPathExpr   = regexp.MustCompile(`\d+/\d+/e\d+`)
)

// EMBOBuilder builds links for The EMBO Journal, EMBO reports, EMBO
// Molecular Medicine and Molecular Systems Biology: the doi suffix with
// its dot collapsed names the supplement file.
type EMBOBuilder struct {
	BaseURL string
}

var _ Builder = (*EMBOBuilder)(nil)

// Journals lists the journal names this builder serves.
func (b *EMBOBuilder) Journals() []string {
	return []string{
		"The EMBO Journal",
		"EMBO reports",
		"EMBO Molecular Medicine",
		"Molecular Systems Biology",
	}
}

// BuildLink collapses the doi suffix (msb.20198849 -> msb20198849) into a
// downloadSupplement URL.
func (b *EMBOBuilder) BuildLink(_ context.Context, doi string) (string, error) {
	match := doiSuffixExpr.FindStringSubmatch(doi)
	if match == nil {
		return "", fmt.Errorf("rpf: doi %q does not match the EMBO Press shape", doi)
	}

	base := b.BaseURL
	if base == "" {
		base = emboPressBaseURL
	}

	file := match[1] + match[2]
	return fmt.Sprintf("%s/action/downloadSupplement?doi=%s&file=%s.reviewer_comments.pdf", base, doi, file), nil
}

// LSABuilder builds links for Life Science Alliance, whose file path
// embeds volume, issue and e-number of the resolved article page.
type LSABuilder struct {
	BaseURL  string
	Resolver ports.Resolver
}

var _ Builder = (*LSABuilder)(nil)

// Journals lists the journal names this builder serves.
func (b *LSABuilder) Journals() []string {
	return []string{"Life Science Alliance"}
}

// BuildLink resolves the doi and lifts vol/issue/e-number out of the
// landing page URL.
func (b *LSABuilder) BuildLink(ctx context.Context, doi string) (string, error) {
	if b.Resolver == nil {
		return "", fmt.Errorf("rpf: LSA builder has no resolver")
	}

	resolved, err := b.Resolver.Resolve(ctx, doi)
	if err != nil {
		return "", fmt.Errorf("rpf: resolve %s: %w", doi, err)
	}

	path := lsaPathExpr.FindString(resolved)
	if path == "" {
		return "", fmt.Errorf("rpf: resolved URL %q carries no vol/issue/e-number", resolved)
	}

	base := b.BaseURL
	if base == "" {
		base = lsaBaseURL
	}

	return fmt.Sprintf("%s/content/lsa/%s.reviewer-comments.pdf", base, strings.TrimSuffix(path, "/")), nil
}
