package recserve

import "github.com/kailas-cloud/recserve/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrLoad            = domain.ErrLoad
	ErrUnknownUser     = domain.ErrUnknownUser
	ErrScoring         = domain.ErrScoring
	ErrMetadataMissing = domain.ErrMetadataMissing
	ErrInvalidRequest  = domain.ErrInvalidRequest
	ErrNotImplemented  = domain.ErrNotImplemented
)
