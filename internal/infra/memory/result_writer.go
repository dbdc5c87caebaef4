package memory

import (
	"context"
	"sync"

	"quiz-arena-service/internal/domain"
)

// ResultWriter keeps round summaries in memory. Used when Postgres is not
// configured, and by tests that assert on what was persisted.
type ResultWriter struct {
	mu      sync.Mutex
	results []domain.RoundResult
}

func NewResultWriter() *ResultWriter {
	return &ResultWriter{}
}

func (w *ResultWriter) SaveRoundResult(_ context.Context, result domain.RoundResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.results = append(w.results, result)
	return nil
}

// Results returns a copy of everything saved so far.
func (w *ResultWriter) Results() []domain.RoundResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]domain.RoundResult(nil), w.results...)
}
