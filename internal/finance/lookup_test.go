package finance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whorep/internal/cache"
	"whorep/internal/provider"
)

type fakeSource struct {
	contributors map[string][]Contribution
	industries   map[string][]Contribution
	failIndustry bool
	calls        int
}

func (f *fakeSource) Contributors(_ context.Context, id string) ([]Contribution, error) {
	f.calls++
	return f.contributors[id], nil
}

func (f *fakeSource) Industries(_ context.Context, id string) ([]Contribution, error) {
	f.calls++
	if f.failIndustry {
		return nil, provider.NewError(provider.CategoryOutage, "finance", "down", nil)
	}
	return f.industries[id], nil
}

func newSource() *fakeSource {
	return &fakeSource{
		contributors: map[string][]Contribution{"N1": {{Name: "Acme", Total: 10, Committee: 4, Individual: 6}}},
		industries:   map[string][]Contribution{"N1": {{Name: "Lawyers", Total: 20}}},
	}
}

func TestLookupCachesBothListings(t *testing.T) {
	ctx := context.Background()
	store, _ := cache.Open(ctx, nil)
	source := newSource()
	lookup := NewLookup(source, store, nil)

	first, err := lookup.Profile(ctx, "N1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 2, source.calls)

	second, err := lookup.Profile(ctx, "N1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, source.calls)
}

func TestLookupIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	store, _ := cache.Open(ctx, nil)
	source := newSource()
	source.failIndustry = true

	profile, err := NewLookup(source, store, nil).Profile(ctx, "N1")
	assert.Nil(t, profile)
	assert.True(t, provider.IsUnavailable(err))

	// The contributor half is cached and reused on the next attempt.
	assert.Equal(t, 1, store.Len(cache.Contributors))
}

func TestLookupOfflineServesCacheOnly(t *testing.T) {
	ctx := context.Background()
	store, _ := cache.Open(ctx, nil)
	require.NoError(t, store.Store(ctx, cache.Contributors, "N1", []Contribution{{Name: "Acme"}}))
	require.NoError(t, store.Store(ctx, cache.Industries, "N1", []Contribution{}))

	lookup := NewLookup(nil, store, nil)
	profile, err := lookup.Profile(ctx, "N1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", profile.Contributors[0].Name)
	assert.Empty(t, profile.Industries)

	_, err = lookup.Profile(ctx, "N2")
	assert.True(t, errors.Is(err, ErrNoSource))
}

type brokenCache struct{}

func (brokenCache) LookupInto(cache.Namespace, string, any) bool { return false }
func (brokenCache) Store(context.Context, cache.Namespace, string, any) error {
	return cache.ErrUnavailable
}

func TestLookupReportsPersistFailureWithProfile(t *testing.T) {
	profile, err := NewLookup(newSource(), brokenCache{}, nil).Profile(context.Background(), "N1")
	require.NotNil(t, profile)
	assert.ErrorIs(t, err, cache.ErrUnavailable)
}

func TestContributionString(t *testing.T) {
	c := Contribution{Name: "Acme", Total: 10, Committee: 4, Individual: 6}
	assert.Equal(t, "Acme - Total: $10 - from Individuals: $6 - from PACs: $4", c.String())
}
