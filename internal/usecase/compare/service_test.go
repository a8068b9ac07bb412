package compare

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/autorovers/autorovers/internal/domain/classify"
	"github.com/autorovers/autorovers/internal/domain/comparison"
	domsel "github.com/autorovers/autorovers/internal/domain/selection"
	"github.com/autorovers/autorovers/internal/domain/vehicle"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- Mocks ---

type mockFetcher struct {
	records  map[string]vehicle.Details
	errs     map[string]error
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (m *mockFetcher) Get(ctx context.Context, slug string) (vehicle.Details, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return vehicle.Details{}, ctx.Err()
		}
	}
	if err := m.errs[slug]; err != nil {
		return vehicle.Details{}, err
	}
	d, ok := m.records[slug]
	if !ok {
		return vehicle.Details{}, fmt.Errorf("vehicle %s not found", slug)
	}
	return d, nil
}

type reconcileCall struct {
	drop      []int64
	refreshed []vehicle.Reference
	resolved  vehicle.Line
}

type mockSelection struct {
	mu       sync.Mutex
	state    domsel.State
	calls    []reconcileCall
	recError error
}

func (m *mockSelection) Load(context.Context, string) domsel.State { return m.state }

func (m *mockSelection) Reconcile(
	_ context.Context, _ string, drop []int64, refreshed []vehicle.Reference, resolved vehicle.Line,
) (domsel.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, reconcileCall{drop: drop, refreshed: refreshed, resolved: resolved})
	if m.recError != nil {
		return m.state, m.recError
	}
	m.state = domsel.Reconcile(m.state, drop, refreshed, resolved, classify.Default())
	return m.state, nil
}

type mockPublisher struct{ results []Result }

func (m *mockPublisher) PublishComparison(_ context.Context, _ string, r Result) error {
	m.results = append(m.results, r)
	return nil
}

func f64(v float64) *float64 { return &v }
func year(v int) *int        { return &v }

func carDetails(id int64, slug string) vehicle.Details {
	return vehicle.Details{
		ID: id, VehicleType: "Car", Brand: "Tata", Model: "Nexon", Year: year(2024),
		Price: f64(1200000), Category: "SUV", Transmission: "Manual", Slug: slug,
		ImageURL: "https://img.example/" + slug + ".jpg",
		Specs: &vehicle.Specs{
			WarrantyYears: f64(3), ServiceIntervalKm: f64(10000),
			Engine: &vehicle.Engine{FuelType: "Petrol", Power: f64(118), Torque: f64(170), Mileage: f64(17.4)},
			Car:    &vehicle.CarSpecs{BootSpace: f64(382)},
		},
	}
}

func bikeDetails(id int64, slug string) vehicle.Details {
	return vehicle.Details{
		ID: id, VehicleType: "Bike", Brand: "Bajaj", Model: "Pulsar", Year: year(2024),
		Price: f64(150000), Category: "Naked", Transmission: "Manual", Slug: slug,
		ImageURL: "https://img.example/" + slug + ".jpg",
		Specs: &vehicle.Specs{
			WarrantyYears: f64(2), ServiceIntervalKm: f64(5000),
			Engine:     &vehicle.Engine{FuelType: "Petrol", Power: f64(24), Torque: f64(18), Mileage: f64(40)},
			Dimensions: &vehicle.Dimensions{Weight: f64(152)},
			Bike:       &vehicle.BikeSpecs{TankSize: f64(14)},
		},
	}
}

func selectionOf(t *testing.T, details ...vehicle.Details) domsel.State {
	t.Helper()
	refs := make([]vehicle.Reference, len(details))
	for i, d := range details {
		refs[i] = d.Reference()
	}
	s, err := domsel.New(refs, classify.Default())
	if err != nil {
		t.Fatalf("domsel.New: %v", err)
	}
	return s
}

func newService(sel Selection, f Fetcher) *Service {
	return New(sel, f, classify.Default(), comparison.DefaultPolicy(), nil)
}

// --- Tests ---

func TestCompare_AllSucceed(t *testing.T) {
	a, b, c := carDetails(1, "a"), carDetails(2, "b"), carDetails(3, "c")
	sel := &mockSelection{state: selectionOf(t, a, b, c)}
	f := &mockFetcher{records: map[string]vehicle.Details{"a": a, "b": b, "c": c}}
	pub := &mockPublisher{}

	res, err := newService(sel, f).WithPublisher(pub).Compare(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Insufficient {
		t.Fatal("unexpected insufficient result")
	}
	if res.Line != vehicle.LineCar {
		t.Errorf("expected Car, got %q", res.Line)
	}
	if len(res.Vehicles) != 3 || len(res.Table.Columns) != 3 {
		t.Errorf("expected 3 vehicles and columns, got %d/%d", len(res.Vehicles), len(res.Table.Columns))
	}
	if len(res.Table.Rows) != 10 {
		t.Errorf("expected 10 rows, got %d", len(res.Table.Rows))
	}
	for i, id := range []int64{1, 2, 3} {
		if res.Vehicles[i].Common().ID != id {
			t.Errorf("vehicle %d: expected id %d, got %d", i, id, res.Vehicles[i].Common().ID)
		}
	}
	if len(sel.calls) != 0 {
		t.Error("no drops must not reconcile")
	}
	if len(pub.results) != 1 {
		t.Errorf("expected 1 published comparison, got %d", len(pub.results))
	}
}

func TestCompare_FetchFailureDropsAndReconciles(t *testing.T) {
	a, b, c := carDetails(1, "a"), carDetails(2, "b"), carDetails(3, "c")
	sel := &mockSelection{state: selectionOf(t, a, b, c)}
	f := &mockFetcher{
		records: map[string]vehicle.Details{"a": a, "c": c},
		errs:    map[string]error{"b": errors.New("502 bad gateway")},
	}

	res, err := newService(sel, f).Compare(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Vehicles) != 2 || res.Insufficient {
		t.Fatalf("expected 2 vehicles, got %d (insufficient=%v)", len(res.Vehicles), res.Insufficient)
	}
	if len(res.Dropped) != 1 || res.Dropped[0].ID != 2 || res.Dropped[0].Cause != CauseFetch {
		t.Fatalf("unexpected drops %+v", res.Dropped)
	}
	if len(sel.calls) != 1 {
		t.Fatalf("expected one reconcile, got %d", len(sel.calls))
	}
	if got := sel.state.IDs(); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("expected stored ids [1 3], got %v", got)
	}
	if sel.calls[0].resolved != vehicle.LineCar {
		t.Errorf("expected reconcile with Car, got %q", sel.calls[0].resolved)
	}
}

func TestCompare_NormalizeRejectDrops(t *testing.T) {
	a, b := carDetails(1, "a"), carDetails(2, "b")
	broken := carDetails(3, "c")
	broken.Price = nil
	sel := &mockSelection{state: selectionOf(t, a, b, broken)}
	f := &mockFetcher{records: map[string]vehicle.Details{"a": a, "b": b, "c": broken}}

	res, err := newService(sel, f).Compare(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Dropped) != 1 {
		t.Fatalf("expected 1 drop, got %+v", res.Dropped)
	}
	d := res.Dropped[0]
	if d.Cause != CauseNormalize || d.Reason != "missing price" {
		t.Errorf("unexpected drop %+v", d)
	}
}

func TestCompare_LenientKeepsIncompleteRecords(t *testing.T) {
	a := carDetails(1, "a")
	b := carDetails(2, "b")
	b.Price = nil
	sel := &mockSelection{state: selectionOf(t, a, b)}
	f := &mockFetcher{records: map[string]vehicle.Details{"a": a, "b": b}}
	policy := comparison.Policy{Validation: comparison.ValidationLenient}

	res, err := New(sel, f, classify.Default(), policy, nil).Compare(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Insufficient || len(res.Dropped) != 0 {
		t.Fatalf("expected both vehicles kept, got %+v", res.Dropped)
	}
}

func TestCompare_TypeMismatchAfterRecategorization(t *testing.T) {
	a, b, c := carDetails(1, "a"), carDetails(2, "b"), carDetails(3, "c")
	sel := &mockSelection{state: selectionOf(t, a, b, c)}
	// the catalog now lists c as a bike; its category wins over the stale tag
	moved := bikeDetails(3, "c")
	moved.VehicleType = "Car"
	f := &mockFetcher{records: map[string]vehicle.Details{"a": a, "b": b, "c": moved}}

	res, err := newService(sel, f).Compare(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Dropped) != 1 || res.Dropped[0].Cause != CauseTypeMismatch {
		t.Fatalf("expected a type-mismatch drop, got %+v", res.Dropped)
	}
	if sel.state.Contains(3) {
		t.Error("mismatched vehicle must be removed from the selection")
	}
}

func TestCompare_InsufficientWithoutFetch(t *testing.T) {
	a := carDetails(1, "a")
	sel := &mockSelection{state: selectionOf(t, a)}
	f := &mockFetcher{records: map[string]vehicle.Details{"a": a}}

	res, err := newService(sel, f).Compare(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Insufficient {
		t.Error("expected insufficient result")
	}
	if f.peak.Load() != 0 {
		t.Error("single selection must not fetch")
	}
}

func TestCompare_InsufficientAfterDrops(t *testing.T) {
	a, b := carDetails(1, "a"), carDetails(2, "b")
	sel := &mockSelection{state: selectionOf(t, a, b)}
	f := &mockFetcher{records: map[string]vehicle.Details{"a": a}}

	res, err := newService(sel, f).Compare(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Insufficient {
		t.Fatal("one survivor must be insufficient")
	}
	if len(res.Table.Columns) != 0 {
		t.Error("insufficient result must not carry a table")
	}
	if got := sel.state.IDs(); len(got) != 1 || got[0] != 1 {
		t.Errorf("expected stored ids [1], got %v", got)
	}
}

func TestCompare_ReconcileErrorIsLoggedNotReturned(t *testing.T) {
	a, b, c := carDetails(1, "a"), carDetails(2, "b"), carDetails(3, "c")
	sel := &mockSelection{state: selectionOf(t, a, b, c), recError: errors.New("storage down")}
	f := &mockFetcher{records: map[string]vehicle.Details{"a": a, "b": b}}

	if _, err := newService(sel, f).Compare(context.Background(), "u1"); err != nil {
		t.Fatalf("reconcile failure must not fail the comparison: %v", err)
	}
}

func TestCompare_FetchesConcurrently(t *testing.T) {
	recs := map[string]vehicle.Details{}
	ds := make([]vehicle.Details, 4)
	for i := range ds {
		slug := fmt.Sprintf("v%d", i)
		ds[i] = bikeDetails(int64(i+1), slug)
		recs[slug] = ds[i]
	}
	sel := &mockSelection{state: selectionOf(t, ds...)}
	f := &mockFetcher{records: recs, delay: 50 * time.Millisecond}

	if _, err := newService(sel, f).Compare(context.Background(), "u1"); err != nil {
		t.Fatal(err)
	}
	if f.peak.Load() < 2 {
		t.Errorf("expected concurrent fetches, peak in flight = %d", f.peak.Load())
	}
}

func TestCompare_FetchTimeoutDrops(t *testing.T) {
	a, b, c := bikeDetails(1, "a"), bikeDetails(2, "b"), bikeDetails(3, "c")
	sel := &mockSelection{state: selectionOf(t, a, b, c)}
	f := &mockFetcher{records: map[string]vehicle.Details{"a": a, "b": b, "c": c}, delay: time.Second}

	res, err := newService(sel, f).WithFetchTimeout(10 * time.Millisecond).Compare(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Insufficient || len(res.Dropped) != 3 {
		t.Fatalf("expected every fetch to time out, got %+v", res.Dropped)
	}
}

func TestCompare_CancelledContext(t *testing.T) {
	a, b := carDetails(1, "a"), carDetails(2, "b")
	sel := &mockSelection{state: selectionOf(t, a, b)}
	f := &mockFetcher{records: map[string]vehicle.Details{"a": a, "b": b}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newService(sel, f).Compare(ctx, "u1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
