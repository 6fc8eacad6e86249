package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attaboy/matchedge/internal/domain"
)

type fakeLookup struct {
	// ids per key; every key not present returns no hits.
	ids  map[string][]int64
	err  error
	seen []string
}

func (f *fakeLookup) FindPlayerIDsByKey(_ context.Context, key string, _ domain.Tour) ([]int64, error) {
	f.seen = append(f.seen, key)
	if f.err != nil {
		return nil, f.err
	}
	return f.ids[key], nil
}

func TestResolve_ExactNameHit(t *testing.T) {
	lookup := &fakeLookup{ids: map[string][]int64{"novak djokovic": {7}}}
	r := NewStoreResolver(lookup)

	id, ok, err := r.Resolve(context.Background(), "Novak Djokovic", domain.TourATP)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)
	// The full-name key hit, so no broader key was tried.
	assert.Equal(t, []string{"novak djokovic"}, lookup.seen)
}

func TestResolve_FallsBackToSurnameInitial(t *testing.T) {
	lookup := &fakeLookup{ids: map[string][]int64{"djokovic n": {7}}}
	r := NewStoreResolver(lookup)

	id, ok, err := r.Resolve(context.Background(), "Djokovic N.", domain.Tour(""))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)
}

func TestResolve_SurnameOnlyNeedsUniqueHit(t *testing.T) {
	unique := &fakeLookup{ids: map[string][]int64{"djokovic": {7}}}
	r := NewStoreResolver(unique)
	id, ok, err := r.Resolve(context.Background(), "Djokovic", domain.Tour(""))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)

	shared := &fakeLookup{ids: map[string][]int64{"zverev": {7, 8}}}
	r = NewStoreResolver(shared)
	_, ok, err = r.Resolve(context.Background(), "Zverev", domain.Tour(""))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolve_AmbiguityStopsTheSearch(t *testing.T) {
	// Two players share the specific key; the resolver refuses to guess and
	// never consults broader keys.
	lookup := &fakeLookup{ids: map[string][]int64{
		"djokovic n": {7, 9},
		"djokovic":   {7},
	}}
	r := NewStoreResolver(lookup)

	_, ok, err := r.Resolve(context.Background(), "Djokovic N.", domain.Tour(""))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotContains(t, lookup.seen, "djokovic")
}

func TestResolve_UnknownName(t *testing.T) {
	r := NewStoreResolver(&fakeLookup{})
	_, ok, err := r.Resolve(context.Background(), "Totally Unknown", domain.Tour(""))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolve_LookupError(t *testing.T) {
	r := NewStoreResolver(&fakeLookup{err: errors.New("connection reset")})
	_, _, err := r.Resolve(context.Background(), "Novak Djokovic", domain.TourATP)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Novak Djokovic")
}
