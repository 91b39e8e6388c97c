package rpf

import (
	"context"
	"strings"
)

// Builder constructs a candidate review-process-file link for the
// journals of one publisher family. Link morphology varies per journal,
// so each family gets its own strategy.
type Builder interface {
	Journals() []string
	BuildLink(ctx context.Context, doi string) (string, error)
}

// Registry keeps a mapping from journal names to their link builders.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: map[string]Builder{}}
}

// Register adds or replaces a builder for every journal it serves.
func (r *Registry) Register(builder Builder) {
	if r.builders == nil {
		r.builders = map[string]Builder{}
	}
	for _, journal := range builder.Journals() {
		r.builders[normalize(journal)] = builder
	}
}

// Resolve returns the builder for a journal, or false when the journal
// has no known link shape.
func (r *Registry) Resolve(journal string) (Builder, bool) {
	builder, ok := r.builders[normalize(journal)]
	return builder, ok
}

func normalize(journal string) string {
	return strings.ToLower(strings.TrimSpace(journal))
}
