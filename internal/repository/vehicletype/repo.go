package vehicletype

import (
	"context"
	"errors"
	"fmt"

	"github.com/autorovers/autorovers/internal/db"
	"github.com/autorovers/autorovers/internal/domain/vehicle"
)

// store is the consumer interface for the vehicle type repository (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Watch(ctx context.Context, key string, fn func()) (func(), error)
}

// Repo persists the product line a session is browsing.
type Repo struct {
	store  store
	prefix string
}

// New creates a vehicle type repository. Keys are <prefix>vehicle_type:v1:<owner>.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Key returns the storage key for an owner's vehicle type.
func (r *Repo) Key(owner string) string {
	return r.prefix + "vehicle_type:v1:" + owner
}

// Get returns the stored line. Missing or unrecognized values are "" with a nil error;
// lowercase values written by older clients are accepted.
func (r *Repo) Get(ctx context.Context, owner string) (vehicle.Line, error) {
	data, err := r.store.Get(ctx, r.Key(owner))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("get vehicle type: %w", err)
	}
	line, _ := vehicle.ParseLine(string(data))
	return line, nil
}

// Set stores line.
func (r *Repo) Set(ctx context.Context, owner string, line vehicle.Line) error {
	if err := r.store.Set(ctx, r.Key(owner), []byte(line)); err != nil {
		return fmt.Errorf("set vehicle type: %w", err)
	}
	return nil
}

// Clear removes the stored line.
func (r *Repo) Clear(ctx context.Context, owner string) error {
	if err := r.store.Del(ctx, r.Key(owner)); err != nil {
		return fmt.Errorf("clear vehicle type: %w", err)
	}
	return nil
}

// Watch signals every change of the owner's vehicle type, from any process.
func (r *Repo) Watch(ctx context.Context, owner string, fn func()) (func(), error) {
	stop, err := r.store.Watch(ctx, r.Key(owner), fn)
	if err != nil {
		return nil, fmt.Errorf("watch vehicle type: %w", err)
	}
	return stop, nil
}
