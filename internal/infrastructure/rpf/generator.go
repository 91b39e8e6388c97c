package rpf

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"traxiv/internal/ports"
)

// Generator resolves a journal to its link builder and liveness-tests
// every generated link before handing it out. An empty result means no
// review process file is available, which keeps the record from being
// posted.
type Generator struct {
	registry *Registry
	client   *http.Client
	logger   *slog.Logger
}

var _ ports.ReviewLinkSource = (*Generator)(nil)

// NewGenerator wires the default builders for the EMBO Press journal
// family. The resolver is needed for Life Science Alliance links.
func NewGenerator(client *http.Client, resolver ports.Resolver, logger *slog.Logger) *Generator {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}

	registry := NewRegistry()
	registry.Register(&EMBOBuilder{})
	registry.Register(&LSABuilder{Resolver: resolver})

	return &Generator{registry: registry, client: client, logger: logger}
}

// NewGeneratorWithRegistry wires a caller-assembled registry; tests and
// future publisher families use it.
func NewGeneratorWithRegistry(registry *Registry, client *http.Client, logger *slog.Logger) *Generator {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Generator{registry: registry, client: client, logger: logger}
}

// ReviewProcessLink returns a tested link to the paper's review process
// file, or "" when the journal is unknown or the link is dead.
func (g *Generator) ReviewProcessLink(ctx context.Context, journal, doi string) (string, error) {
	builder, ok := g.registry.Resolve(journal)
	if !ok {
		g.debug("no link builder for journal", "journal", journal)
		return "", nil
	}

	link, err := builder.BuildLink(ctx, doi)
	if err != nil {
		return "", err
	}
	if link == "" {
		return "", nil
	}

	alive, err := g.alive(ctx, link)
	if err != nil {
		return "", err
	}
	if !alive {
		g.debug("generated link is dead", "link", link)
		return "", nil
	}

	return link, nil
}

// alive checks that the link answers with a PDF; anything else means the
// file is absent and the link must not be posted.
func (g *Generator) alive(ctx context.Context, link string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "traxiv/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("test link: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	return strings.Contains(resp.Header.Get("Content-Type"), "application/pdf"), nil
}

func (g *Generator) debug(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}
