package chi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/autorovers/autorovers/internal/db/memory"
	"github.com/autorovers/autorovers/internal/domain/classify"
	"github.com/autorovers/autorovers/internal/domain/comparison"
	"github.com/autorovers/autorovers/internal/domain/vehicle"
	selrepo "github.com/autorovers/autorovers/internal/repository/selection"
	vtrepo "github.com/autorovers/autorovers/internal/repository/vehicletype"
	compareuc "github.com/autorovers/autorovers/internal/usecase/compare"
	healthuc "github.com/autorovers/autorovers/internal/usecase/health"
	selectionuc "github.com/autorovers/autorovers/internal/usecase/selection"
	vehicletypeuc "github.com/autorovers/autorovers/internal/usecase/vehicletype"
)

// --- Fakes ---

type fakeCatalog map[string]vehicle.Details

func (f fakeCatalog) Get(_ context.Context, slug string) (vehicle.Details, error) {
	d, ok := f[slug]
	if !ok {
		return vehicle.Details{}, fmt.Errorf("no vehicle %s", slug)
	}
	return d, nil
}

func (f fakeCatalog) List(context.Context) ([]vehicle.Reference, error) {
	out := make([]vehicle.Reference, 0, len(f))
	for _, slug := range []string{"nexon", "creta", "pulsar"} {
		if d, ok := f[slug]; ok {
			out = append(out, d.Reference())
		}
	}
	return out, nil
}

func f64(v float64) *float64 { return &v }
func year(v int) *int        { return &v }

func carRecord(id int64, slug string) vehicle.Details {
	return vehicle.Details{
		ID: id, VehicleType: "Car", Brand: "Brand", Model: slug, Year: year(2024),
		Price: f64(1500000), Category: "SUV", Transmission: "Manual", Slug: slug,
		ImageURL: "https://img.example/" + slug + ".jpg",
		Specs: &vehicle.Specs{
			WarrantyYears: f64(3), ServiceIntervalKm: f64(10000),
			Engine: &vehicle.Engine{FuelType: "Petrol", Power: f64(118), Torque: f64(170), Mileage: f64(17)},
			Car:    &vehicle.CarSpecs{BootSpace: f64(380)},
		},
	}
}

func bikeRecord(id int64, slug string) vehicle.Details {
	return vehicle.Details{
		ID: id, VehicleType: "Bike", Brand: "Bajaj", Model: slug, Year: year(2024),
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

var catalog = fakeCatalog{
	"nexon":  carRecord(1, "nexon"),
	"creta":  carRecord(2, "creta"),
	"pulsar": bikeRecord(3, "pulsar"),
}

type testAPI struct {
	*httptest.Server
	store *memory.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memory.New()
	cls := classify.Default()

	selSvc := selectionuc.New(selrepo.New(store, "test:", cls), cls, nil)
	vtSvc := vehicletypeuc.New(vtrepo.New(store, "test:"), selSvc, nil)
	cmpSvc := compareuc.New(selSvc, catalog, cls, comparison.DefaultPolicy(), nil)
	healthSvc := healthuc.New(store, nil)

	srv := NewServer(selSvc, vtSvc, cmpSvc, healthSvc, catalog, cls, zap.NewNop()).
		WithHeartbeat(50 * time.Millisecond)
	h := HandlerWithOptions(srv, ChiServerOptions{
		Middlewares: []MiddlewareFunc{SessionMiddleware(false)},
	})

	ts := httptest.NewServer(h)
	t.Cleanup(func() {
		ts.Close()
		store.Close()
	})
	return &testAPI{Server: ts, store: store}
}

func (a *testAPI) do(t *testing.T, method, path, session string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, a.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	resp, err := a.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

// --- Tests ---

func TestToggleAndGetSelection(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodPost, "/compare/selection/toggle", "s1", catalog["nexon"].Reference())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle: got %d", resp.StatusCode)
	}
	sel := decode[SelectionResponse](t, resp)
	if sel.VehicleType == nil || *sel.VehicleType != vehicle.LineCar || len(sel.Items) != 1 {
		t.Fatalf("unexpected selection %+v", sel)
	}

	sel = decode[SelectionResponse](t, api.do(t, http.MethodGet, "/compare/selection", "s1", nil))
	if len(sel.Items) != 1 || sel.Items[0].Slug != "nexon" || sel.Capacity != 4 {
		t.Errorf("unexpected stored selection %+v", sel)
	}

	other := decode[SelectionResponse](t, api.do(t, http.MethodGet, "/compare/selection", "s2", nil))
	if len(other.Items) != 0 || other.VehicleType != nil {
		t.Errorf("sessions must be isolated, got %+v", other)
	}
}

func TestToggle_RejectionIs200WithReason(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/compare/selection/toggle", "s1", catalog["nexon"].Reference())

	resp := api.do(t, http.MethodPost, "/compare/selection/toggle", "s1", catalog["pulsar"].Reference())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got %d", resp.StatusCode)
	}
	sel := decode[SelectionResponse](t, resp)
	if sel.Reason == nil || *sel.Reason != "duplicate-type" {
		t.Fatalf("expected duplicate-type reason, got %+v", sel)
	}
	if sel.Message == nil || *sel.Message == "" {
		t.Error("expected a user-facing message")
	}
	if len(sel.Items) != 1 {
		t.Errorf("selection must be unchanged, got %d items", len(sel.Items))
	}
}

func TestToggle_InvalidBody(t *testing.T) {
	api := newTestAPI(t)
	req, _ := http.NewRequest(http.MethodPost, api.URL+"/compare/selection/toggle", strings.NewReader("{nope"))
	resp, err := api.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("got %d, want 400", resp.StatusCode)
	}
}

func TestSession_CookieIssued(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodGet, "/compare/selection", "", nil)

	var issued *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookie {
			issued = c
		}
	}
	if issued == nil || issued.Value == "" {
		t.Fatal("expected a session cookie")
	}
	if resp.Header.Get(SessionHeader) != issued.Value {
		t.Errorf("session header %q does not match cookie %q", resp.Header.Get(SessionHeader), issued.Value)
	}
}

func TestRemoveAndClearSelection(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/compare/selection/toggle", "s1", catalog["nexon"].Reference())
	api.do(t, http.MethodPost, "/compare/selection/toggle", "s1", catalog["creta"].Reference())

	sel := decode[SelectionResponse](t, api.do(t, http.MethodDelete, "/compare/selection/items/nexon", "s1", nil))
	if len(sel.Items) != 1 || sel.Items[0].Slug != "creta" {
		t.Fatalf("unexpected selection after remove %+v", sel)
	}

	sel = decode[SelectionResponse](t, api.do(t, http.MethodDelete, "/compare/selection", "s1", nil))
	if len(sel.Items) != 0 || sel.VehicleType != nil {
		t.Errorf("expected empty selection, got %+v", sel)
	}
}

func TestCompare(t *testing.T) {
	api := newTestAPI(t)

	res := decode[CompareResponse](t, api.do(t, http.MethodGet, "/compare", "s1", nil))
	if !res.Insufficient {
		t.Fatal("empty selection must be insufficient")
	}

	api.do(t, http.MethodPost, "/compare/selection/toggle", "s1", catalog["nexon"].Reference())
	api.do(t, http.MethodPost, "/compare/selection/toggle", "s1", catalog["creta"].Reference())

	res = decode[CompareResponse](t, api.do(t, http.MethodGet, "/compare", "s1", nil))
	if res.Insufficient {
		t.Fatalf("unexpected insufficient result, dropped %+v", res.Dropped)
	}
	if len(res.Columns) != 2 || len(res.Rows) != 10 {
		t.Errorf("expected 2 columns and 10 rows, got %d/%d", len(res.Columns), len(res.Rows))
	}
	if res.Rows[0].Label != "Price (ex-showroom)" || res.Rows[0].Cells[0] != "₹ 1,500,000" {
		t.Errorf("unexpected price row %+v", res.Rows[0])
	}
}

func TestVehicleType_SetClearsOtherLineSelection(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/compare/selection/toggle", "s1", catalog["nexon"].Reference())

	resp := api.do(t, http.MethodPut, "/vehicle-type", "s1", VehicleTypeRequest{VehicleType: "bike"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set: got %d", resp.StatusCode)
	}
	vt := decode[VehicleTypeResponse](t, resp)
	if vt.VehicleType == nil || *vt.VehicleType != vehicle.LineBike {
		t.Fatalf("unexpected vehicle type %+v", vt)
	}

	sel := decode[SelectionResponse](t, api.do(t, http.MethodGet, "/compare/selection", "s1", nil))
	if len(sel.Items) != 0 {
		t.Errorf("switching lines must clear the car selection, got %+v", sel)
	}

	if resp := api.do(t, http.MethodDelete, "/vehicle-type", "s1", nil); resp.StatusCode != http.StatusNoContent {
		t.Errorf("clear: got %d", resp.StatusCode)
	}
	vt = decode[VehicleTypeResponse](t, api.do(t, http.MethodGet, "/vehicle-type", "s1", nil))
	if vt.VehicleType != nil {
		t.Errorf("expected unset vehicle type, got %v", *vt.VehicleType)
	}
}

func TestVehicleType_Invalid(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodPut, "/vehicle-type", "s1", VehicleTypeRequest{VehicleType: "Truck"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", resp.StatusCode)
	}
	if e := decode[ErrorResponse](t, resp); e.Code != ErrorResponseCodeInvalidVehicleType {
		t.Errorf("unexpected code %q", e.Code)
	}
}

func TestListVehicles_FilteredByLine(t *testing.T) {
	api := newTestAPI(t)

	all := decode[VehicleListResponse](t, api.do(t, http.MethodGet, "/vehicles", "s1", nil))
	if len(all.Items) != 3 {
		t.Fatalf("expected unfiltered list of 3, got %d", len(all.Items))
	}

	bikes := decode[VehicleListResponse](t, api.do(t, http.MethodGet, "/vehicles?vehicleType=Bike", "s1", nil))
	if len(bikes.Items) != 1 || bikes.Items[0].Slug != "pulsar" {
		t.Errorf("unexpected bikes %+v", bikes.Items)
	}

	api.do(t, http.MethodPut, "/vehicle-type", "s1", VehicleTypeRequest{VehicleType: "Car"})
	cars := decode[VehicleListResponse](t, api.do(t, http.MethodGet, "/vehicles", "s1", nil))
	if len(cars.Items) != 2 {
		t.Errorf("expected 2 cars from the session type, got %d", len(cars.Items))
	}
}

func TestStorageUnavailable_503(t *testing.T) {
	api := newTestAPI(t)
	api.store.Close()

	resp := api.do(t, http.MethodPost, "/compare/selection/toggle", "s1", catalog["nexon"].Reference())
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want 503", resp.StatusCode)
	}
	if e := decode[ErrorResponse](t, resp); e.Code != ErrorResponseCodeStorageUnavailable {
		t.Errorf("unexpected code %q", e.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodGet, "/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got %d", resp.StatusCode)
	}
	if h := decode[HealthResponse](t, resp); h.Status != "ok" || h.Checks["database"] != "ok" {
		t.Errorf("unexpected health %+v", h)
	}
	if len(resp.Cookies()) != 0 {
		t.Error("health must not issue a session")
	}
}

func TestStreamSelectionEvents(t *testing.T) {
	api := newTestAPI(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, api.URL+"/compare/events", http.NoBody)
	req.Header.Set(SessionHeader, "s1")
	resp, err := api.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	events := make(chan SelectionResponse, 4)
	go func() {
		defer close(events)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			line := sc.Text()
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				var sel SelectionResponse
				if json.Unmarshal([]byte(data), &sel) == nil {
					events <- sel
				}
			}
		}
	}()

	next := func() SelectionResponse {
		t.Helper()
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatal("stream closed")
			}
			return ev
		case <-ctx.Done():
			t.Fatal("timed out waiting for event")
		}
		return SelectionResponse{}
	}

	if first := next(); len(first.Items) != 0 {
		t.Fatalf("expected empty initial snapshot, got %+v", first)
	}

	api.do(t, http.MethodPost, "/compare/selection/toggle", "s1", catalog["nexon"].Reference())
	if ev := next(); len(ev.Items) != 1 || ev.Items[0].Slug != "nexon" {
		t.Fatalf("expected snapshot with nexon, got %+v", ev)
	}

	cancel()
}
