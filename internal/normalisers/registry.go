package normalisers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// documentNamespace seeds document IDs so they are stable across runs.
var documentNamespace = uuid.MustParse("b3f1d0a4-8c2e-4f8e-9d7a-5e2b6c1a9f30")

// DocumentID returns the deterministic ID for a repository-relative path.
func DocumentID(path string) string {
	return uuid.NewSHA1(documentNamespace, []byte(path)).String()
}

// Registry selects a normaliser by document kind and priority.
type Registry struct {
	mu     sync.RWMutex
	byKind map[domain.DocumentKind][]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{byKind: make(map[domain.DocumentKind][]driven.Normaliser)}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// Register adds a normaliser for every kind it supports.
// Normalisers of the same kind are kept sorted by descending priority.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, kind := range n.SupportedKinds() {
		list := append(r.byKind[kind], n)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byKind[kind] = list
	}
}

// Lookup returns the preferred normaliser for a kind.
func (r *Registry) Lookup(kind domain.DocumentKind) (driven.Normaliser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.byKind[kind]
	if len(list) == 0 {
		return nil, false
	}
	return list[0], true
}

// Normalise transforms a classified raw file using the best matching normaliser.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	n, ok := r.Lookup(raw.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: no normaliser for kind %q", domain.ErrUnsupportedType, raw.Kind)
	}
	return n.Normalise(ctx, raw)
}
