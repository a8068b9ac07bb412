package autorovers

import (
	"context"

	healthuc "github.com/autorovers/autorovers/internal/usecase/health"
)

// Health statuses. A client built with WithFetcher only reports its store.
const (
	HealthOK       = string(healthuc.Healthy)
	HealthDegraded = string(healthuc.Degraded)
	HealthError    = string(healthuc.Unhealthy)
)

// HealthStatus is the state of the selection store and, when the client
// talks to the catalog API itself, of the catalog.
type HealthStatus struct {
	Status string            `json:"status"` // HealthOK, HealthDegraded or HealthError
	Checks map[string]string `json:"checks"` // "database", "catalog" -> "ok" | "error"
}

// Serving reports whether selections can still be read and written.
// A catalog outage degrades comparisons but leaves the selection usable.
func (h HealthStatus) Serving() bool {
	return h.Checks["database"] == string(healthuc.CheckOK)
}

// Health pings the store and the catalog.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{Status: string(report.Status), Checks: checks}
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
