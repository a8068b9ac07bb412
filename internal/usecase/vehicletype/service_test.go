package vehicletype

import (
	"context"
	"errors"
	"testing"

	"github.com/autorovers/autorovers/internal/domain"
	domsel "github.com/autorovers/autorovers/internal/domain/selection"
	"github.com/autorovers/autorovers/internal/domain/vehicle"
)

// --- Mocks ---

type mockRepo struct {
	line    vehicle.Line
	getErr  error
	setErr  error
	watchFn func()
	stopped int
}

func (m *mockRepo) Get(_ context.Context, _ string) (vehicle.Line, error) { return m.line, m.getErr }

func (m *mockRepo) Set(_ context.Context, _ string, line vehicle.Line) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.line = line
	return nil
}

func (m *mockRepo) Clear(_ context.Context, _ string) error {
	m.line = ""
	return nil
}

func (m *mockRepo) Watch(_ context.Context, _ string, fn func()) (func(), error) {
	m.watchFn = fn
	return func() { m.stopped++ }, nil
}

type mockClearer struct {
	calledWith vehicle.Line
	cleared    bool
	err        error
}

func (m *mockClearer) ClearUnlessLocked(_ context.Context, _ string, line vehicle.Line) (domsel.State, bool, error) {
	m.calledWith = line
	return domsel.Empty(), m.cleared, m.err
}

// --- Tests ---

func TestGet_ErrorReadsAsUnset(t *testing.T) {
	svc := New(&mockRepo{line: vehicle.LineCar, getErr: errors.New("down")}, nil, nil)
	if got := svc.Get(context.Background(), "u1"); got != "" {
		t.Errorf("expected unset, got %q", got)
	}
}

func TestSet_ClearsSelectionOfOtherLine(t *testing.T) {
	repo := &mockRepo{}
	clr := &mockClearer{cleared: true}
	svc := New(repo, clr, nil)

	if err := svc.Set(context.Background(), "u1", vehicle.LineBike); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.line != vehicle.LineBike {
		t.Errorf("expected Bike stored, got %q", repo.line)
	}
	if clr.calledWith != vehicle.LineBike {
		t.Errorf("expected ClearUnlessLocked(Bike), got %q", clr.calledWith)
	}
}

func TestSet_InvalidLine(t *testing.T) {
	svc := New(&mockRepo{}, nil, nil)
	err := svc.Set(context.Background(), "u1", vehicle.Line("Truck"))
	if !errors.Is(err, domain.ErrInvalidVehicleType) {
		t.Fatalf("expected ErrInvalidVehicleType, got %v", err)
	}
}

func TestSet_StorageError(t *testing.T) {
	svc := New(&mockRepo{setErr: errors.New("timeout")}, nil, nil)
	err := svc.Set(context.Background(), "u1", vehicle.LineCar)
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestSubscribe_LocalAndExternal(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, nil, nil)
	var got []vehicle.Line
	unsub := svc.Subscribe("u1", func(l vehicle.Line) { got = append(got, l) })

	ctx := context.Background()
	if err := svc.Set(ctx, "u1", vehicle.LineCar); err != nil {
		t.Fatal(err)
	}
	repo.watchFn() // echo of our own write
	repo.line = vehicle.LineBike
	repo.watchFn() // another process switched lines
	if err := svc.Clear(ctx, "u1"); err != nil {
		t.Fatal(err)
	}

	want := []vehicle.Line{vehicle.LineCar, vehicle.LineBike, ""}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	unsub()
	if repo.stopped != 1 {
		t.Errorf("expected watch stopped, got %d", repo.stopped)
	}
}
