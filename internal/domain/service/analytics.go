package service

import (
	"context"
	"errors"

	"OppRadar/internal/domain/models"
)

// ErrMLUnavailable signals that the anomaly service could not be reached
// (timeout, network error). Callers degrade to scoring without ML.
var ErrMLUnavailable = errors.New("ml anomaly service unavailable")

// AnomalyDetector fetches ML anomalies for a symbol. Implementations must
// never panic into the caller: transient failures surface as
// ErrMLUnavailable, a 404 is an empty result.
type AnomalyDetector interface {
	GetAnomalies(ctx context.Context, symbol string) ([]models.MLAnomaly, error)
	ClearCache(symbol string)
	ClearAll()
}
