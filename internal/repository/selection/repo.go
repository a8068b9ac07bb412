package selection

import (
	"context"
	"errors"
	"fmt"

	"github.com/autorovers/autorovers/internal/db"
	domsel "github.com/autorovers/autorovers/internal/domain/selection"
)

// store is the consumer interface for the selection repository (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Watch(ctx context.Context, key string, fn func()) (func(), error)
}

// Repo implements usecase/selection.Repository over a key-value store.
type Repo struct {
	store      store
	prefix     string
	classifier domsel.Classifier
}

// New creates a selection repository. Keys are <prefix>compare:v1:<owner>.
func New(s store, prefix string, c domsel.Classifier) *Repo {
	return &Repo{store: s, prefix: prefix, classifier: c}
}

// Key returns the storage key for an owner's selection.
func (r *Repo) Key(owner string) string {
	return r.prefix + "compare:v1:" + owner
}

// Load reads the owner's selection. A missing key is the empty state.
// A corrupt or invalid document yields the empty state together with an
// error wrapping domsel.ErrMalformed.
func (r *Repo) Load(ctx context.Context, owner string) (domsel.State, error) {
	data, err := r.store.Get(ctx, r.Key(owner))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domsel.Empty(), nil
		}
		return domsel.Empty(), fmt.Errorf("get selection: %w", err)
	}
	return decodeState(data, r.classifier)
}

// Save persists the state. The empty state is stored as {"items":[]}.
func (r *Repo) Save(ctx context.Context, owner string, s domsel.State) error {
	data, err := encodeState(s)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, r.Key(owner), data); err != nil {
		return fmt.Errorf("set selection: %w", err)
	}
	return nil
}

// Watch signals every write of the owner's selection, from any process.
func (r *Repo) Watch(ctx context.Context, owner string, fn func()) (func(), error) {
	stop, err := r.store.Watch(ctx, r.Key(owner), fn)
	if err != nil {
		return nil, fmt.Errorf("watch selection: %w", err)
	}
	return stop, nil
}
