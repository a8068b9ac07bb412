package autorovers

import (
	"context"
	"fmt"
	"time"

	"github.com/autorovers/autorovers/internal/domain/vehicle"
	vehicletypeuc "github.com/autorovers/autorovers/internal/usecase/vehicletype"
)

// VehicleTypeService operates on one owner's vehicle type lock.
type VehicleTypeService struct {
	owner string
	svc   *vehicletypeuc.Service
	obs   *observer
}

// Get returns the locked line, or "" when none is set.
func (s *VehicleTypeService) Get(ctx context.Context) Line {
	return s.svc.Get(ctx, s.owner)
}

// Set locks the owner to line. A selection of the other line is cleared.
func (s *VehicleTypeService) Set(ctx context.Context, line Line) (err error) {
	start := time.Now()
	defer func() { s.obs.observe(call{op: "vehicle_type.set", owner: s.owner, start: start, err: err, attrs: []any{"line", string(line)}}) }()

	if err = s.svc.Set(ctx, s.owner, line); err != nil {
		return fmt.Errorf("set vehicle type: %w", err)
	}
	return nil
}

// Clear removes the lock.
func (s *VehicleTypeService) Clear(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { s.obs.observe(call{op: "vehicle_type.clear", owner: s.owner, start: start, err: err}) }()

	if err = s.svc.Clear(ctx, s.owner); err != nil {
		return fmt.Errorf("clear vehicle type: %w", err)
	}
	return nil
}

// Watch calls fn with every new line until stop is called.
func (s *VehicleTypeService) Watch(fn func(Line)) (stop func()) {
	return s.svc.Subscribe(s.owner, func(l vehicle.Line) { fn(l) })
}
