package health

import (
	"context"

	"github.com/kailas-cloud/recserve/internal/domain"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing; recommendations still work.
	Degraded Status = "degraded"
	// Unhealthy indicates no model can serve requests.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckDisabled indicates a component that is not configured.
	CheckDisabled CheckResult = "disabled"
)

// Report aggregates health check results.
// Checks holds one entry per model family ("model:<family>") and "cache".
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

var knownFamilies = []domain.ModelFamily{domain.FamilyFactorization, domain.FamilyValue}

// Service coordinates health checks.
type Service struct {
	models ModelLister
	cache  CachePinger
}

// New creates a Service. cache can be nil.
func New(models ModelLister, cache CachePinger) *Service {
	return &Service{models: models, cache: cache}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(knownFamilies)+1)

	loaded := make(map[domain.ModelFamily]bool)
	for _, f := range s.models.Families() {
		loaded[f] = true
	}
	for _, f := range knownFamilies {
		if loaded[f] {
			checks["model:"+string(f)] = CheckOK
		} else {
			checks["model:"+string(f)] = CheckDisabled
		}
	}

	switch {
	case s.cache == nil:
		checks["cache"] = CheckDisabled
	case s.cache.Ping(ctx) != nil:
		checks["cache"] = CheckError
	default:
		checks["cache"] = CheckOK
	}

	status := Healthy
	if checks["cache"] == CheckError {
		status = Degraded
	}
	if len(loaded) == 0 {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}
