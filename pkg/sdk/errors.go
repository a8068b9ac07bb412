package autorovers

import "github.com/autorovers/autorovers/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound           = domain.ErrNotFound
	ErrInvalidInput       = domain.ErrInvalidInput
	ErrInvalidVehicleType = domain.ErrInvalidVehicleType
	ErrStorageUnavailable = domain.ErrStorageUnavailable
	ErrCatalogUnavailable = domain.ErrCatalogUnavailable
	ErrRateLimited        = domain.ErrRateLimited
)
