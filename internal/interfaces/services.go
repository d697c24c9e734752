package interfaces

import (
	"context"

	"stockintel/internal/models"
)

// IntelligenceService is the single entry point external collaborators call.
type IntelligenceService interface {
	// GetIntelligence aggregates all relevant providers for a symbol and
	// returns one finished report. It returns *models.NotFoundError when
	// neither the primary quote source nor its fallback produced a nonzero
	// price; every other partial-failure combination yields a best-effort
	// report with data-quality warnings.
	GetIntelligence(ctx context.Context, symbol string) (*models.IntelligenceReport, error)
}
