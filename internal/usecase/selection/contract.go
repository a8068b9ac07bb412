package selection

import (
	"context"

	domsel "github.com/autorovers/autorovers/internal/domain/selection"
)

// Repository defines the storage contract for compare selections.
type Repository interface {
	Load(ctx context.Context, owner string) (domsel.State, error)
	Save(ctx context.Context, owner string, s domsel.State) error
	Watch(ctx context.Context, owner string, fn func()) (func(), error)
}

// Publisher announces persisted selection changes outside the process.
type Publisher interface {
	PublishSelection(ctx context.Context, owner string, s domsel.State) error
}
