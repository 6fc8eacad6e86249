package resolver

import (
	"context"
	"fmt"

	"github.com/attaboy/matchedge/internal/domain"
)

// Resolver maps a free-form player string, with an optional tour hint, to a
// canonical player ID. ok is false when no confident match exists.
type Resolver interface {
	Resolve(ctx context.Context, name string, hint domain.Tour) (id int64, ok bool, err error)
}

// Lookup is the store view the default resolver consults: canonical player
// names, alias names, and the user-maintained name_mappings table, all
// indexed by folded form.
type Lookup interface {
	// FindPlayerIDsByKey returns canonical IDs whose folded name, alias, or
	// mapping matches the key, optionally filtered by tour.
	FindPlayerIDsByKey(ctx context.Context, key string, hint domain.Tour) ([]int64, error)
}

// StoreResolver is the default Resolver over the store's name index.
type StoreResolver struct {
	lookup Lookup
}

// NewStoreResolver creates a StoreResolver.
func NewStoreResolver(lookup Lookup) *StoreResolver {
	return &StoreResolver{lookup: lookup}
}

// Resolve tries the generated keys most-specific first and accepts only
// unambiguous hits. A surname-only key resolves only when exactly one player
// carries it; anything else is unknown rather than a guess.
func (r *StoreResolver) Resolve(ctx context.Context, name string, hint domain.Tour) (int64, bool, error) {
	for _, key := range Keys(name) {
		ids, err := r.lookup.FindPlayerIDsByKey(ctx, key, hint)
		if err != nil {
			return 0, false, fmt.Errorf("resolve %q: %w", name, err)
		}
		if len(ids) == 1 {
			return ids[0], true, nil
		}
		if len(ids) > 1 {
			// Ambiguous at this specificity; broader keys only get worse.
			return 0, false, nil
		}
	}
	return 0, false, nil
}
