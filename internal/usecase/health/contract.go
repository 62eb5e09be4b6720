package health

import (
	"context"

	"github.com/kailas-cloud/recserve/internal/domain"
)

// ModelLister reports which model families are loaded.
type ModelLister interface {
	Families() []domain.ModelFamily
}

// CachePinger checks cache store availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}
