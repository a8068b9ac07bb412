package vehicletype

import (
	"context"

	domsel "github.com/autorovers/autorovers/internal/domain/selection"
	"github.com/autorovers/autorovers/internal/domain/vehicle"
)

// Repository defines the storage contract for the vehicle type lock.
type Repository interface {
	Get(ctx context.Context, owner string) (vehicle.Line, error)
	Set(ctx context.Context, owner string, line vehicle.Line) error
	Clear(ctx context.Context, owner string) error
	Watch(ctx context.Context, owner string, fn func()) (func(), error)
}

// SelectionClearer drops a compare selection locked to another line.
type SelectionClearer interface {
	ClearUnlessLocked(ctx context.Context, owner string, line vehicle.Line) (domsel.State, bool, error)
}
