package health

import "context"

// DBPinger checks storage availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// CatalogChecker checks that the upstream catalog answers.
type CatalogChecker interface {
	HealthCheck(ctx context.Context) error
}
