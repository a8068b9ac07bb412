package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput signals a malformed request payload.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidVehicleType signals a product line other than Bike or Car.
	ErrInvalidVehicleType = errors.New("invalid vehicle type")
	// ErrStorageUnavailable signals that the selection could not be persisted.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrCatalogUnavailable signals that the upstream catalog could not be reached.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrRateLimited signals a client-side rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)

// CatalogError wraps ErrCatalogUnavailable with the upstream HTTP status and message.
// A 404 also matches ErrNotFound.
type CatalogError struct {
	Status  int
	Message string
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("%s: %d %s", ErrCatalogUnavailable.Error(), e.Status, e.Message)
}

func (e *CatalogError) Unwrap() []error {
	if e.Status == http.StatusNotFound {
		return []error{ErrCatalogUnavailable, ErrNotFound}
	}
	return []error{ErrCatalogUnavailable}
}

// NewCatalogError creates a catalog error for a non-2xx upstream response.
func NewCatalogError(status int, message string) error {
	return &CatalogError{Status: status, Message: message}
}
