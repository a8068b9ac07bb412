package compare

import (
	"context"

	domsel "github.com/autorovers/autorovers/internal/domain/selection"
	"github.com/autorovers/autorovers/internal/domain/vehicle"
)

// Fetcher loads a full catalog record by slug.
type Fetcher interface {
	Get(ctx context.Context, slug string) (vehicle.Details, error)
}

// Selection is the part of the compare selection store the orchestrator uses.
type Selection interface {
	Load(ctx context.Context, owner string) domsel.State
	Reconcile(
		ctx context.Context, owner string,
		drop []int64, refreshed []vehicle.Reference, resolved vehicle.Line,
	) (domsel.State, error)
}

// Classifier resolves the product line of a fetched record.
type Classifier interface {
	ClassifyDetail(h vehicle.Hints) (vehicle.Line, bool)
}

// Publisher announces finished comparisons.
type Publisher interface {
	PublishComparison(ctx context.Context, owner string, r Result) error
}
