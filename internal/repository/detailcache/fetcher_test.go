package detailcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/autorovers/autorovers/internal/db/memory"
	"github.com/autorovers/autorovers/internal/domain/vehicle"
)

type countingFetcher struct {
	calls int
	err   error
}

func (f *countingFetcher) Get(_ context.Context, slug string) (vehicle.Details, error) {
	f.calls++
	if f.err != nil {
		return vehicle.Details{}, f.err
	}
	return vehicle.Details{ID: int64(f.calls), Slug: slug, Brand: "Royal Enfield"}, nil
}

func newCacheCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
}

func newTestFetcher(t *testing.T, inner Fetcher, maxAge time.Duration) (*CachedFetcher, *prometheus.CounterVec, *time.Time) {
	t.Helper()
	store := memory.New()
	t.Cleanup(store.Close)

	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	counter := newCacheCounter()
	cf := New(inner, store, "test:", maxAge, counter, nil)
	cf.now = func() time.Time { return clock }
	return cf, counter, &clock
}

func TestGet_MissThenHit(t *testing.T) {
	inner := &countingFetcher{}
	cf, counter, _ := newTestFetcher(t, inner, time.Minute)
	ctx := context.Background()

	first, err := cf.Get(ctx, "classic-350")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := cf.Get(ctx, "Classic-350")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if inner.calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", inner.calls)
	}
	if first.ID != second.ID || second.Brand != "Royal Enfield" {
		t.Errorf("cached record differs: %+v vs %+v", first, second)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("miss")); got != 1 {
		t.Errorf("miss = %v, want 1", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("hit")); got != 1 {
		t.Errorf("hit = %v, want 1", got)
	}
}

func TestGet_StaleEntryRefetched(t *testing.T) {
	inner := &countingFetcher{}
	cf, counter, clock := newTestFetcher(t, inner, time.Minute)
	ctx := context.Background()

	if _, err := cf.Get(ctx, "himalayan"); err != nil {
		t.Fatal(err)
	}
	*clock = clock.Add(2 * time.Minute)

	d, err := cf.Get(ctx, "himalayan")
	if err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 || d.ID != 2 {
		t.Errorf("expected a refetch, calls=%d id=%d", inner.calls, d.ID)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("stale")); got != 1 {
		t.Errorf("stale = %v, want 1", got)
	}
}

func TestGet_ErrorsNotCached(t *testing.T) {
	boom := errors.New("catalog down")
	inner := &countingFetcher{err: boom}
	cf, _, _ := newTestFetcher(t, inner, time.Minute)
	ctx := context.Background()

	for range 2 {
		if _, err := cf.Get(ctx, "hunter"); !errors.Is(err, boom) {
			t.Fatalf("expected wrapped upstream error, got %v", err)
		}
	}
	if inner.calls != 2 {
		t.Errorf("failed fetches must not be cached, calls=%d", inner.calls)
	}
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) { return []byte("{not json"), nil }
func (brokenStore) Set(context.Context, string, []byte) error { return errors.New("read-only") }

func TestGet_BrokenCacheFallsThrough(t *testing.T) {
	inner := &countingFetcher{}
	cf := New(inner, brokenStore{}, "test:", time.Minute, nil, nil)

	d, err := cf.Get(context.Background(), "meteor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Slug != "meteor" || inner.calls != 1 {
		t.Errorf("expected upstream record, got %+v (calls=%d)", d, inner.calls)
	}
}
