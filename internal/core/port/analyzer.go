package port

import (
	"artcritic/internal/core/domain"
	"context"
)

type Analyzer interface {
	// Analyze submits the payload exactly once and returns the critique text.
	Analyze(ctx context.Context, payload domain.TransportPayload) (domain.CritiqueResult, error)
}

type HealthChecker interface {
	// CheckHealth always resolves to a status, failures included.
	CheckHealth(ctx context.Context) domain.HealthStatus
}
