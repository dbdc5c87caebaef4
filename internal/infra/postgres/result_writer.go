package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-arena-service/internal/domain"
)

// ResultWriter persists round summaries as JSONB rows. The live engine never
// reads these back; reporting tooling owns them from here on.
type ResultWriter struct {
	pool *pgxpool.Pool
}

func NewResultWriter(pool *pgxpool.Pool) *ResultWriter {
	return &ResultWriter{pool: pool}
}

func (w *ResultWriter) SaveRoundResult(ctx context.Context, result domain.RoundResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal round result: %w", err)
	}
	_, err = w.pool.Exec(ctx,
		`INSERT INTO round_results (room_code, data) VALUES ($1, $2::jsonb)`,
		result.RoomCode, data)
	if err != nil {
		return fmt.Errorf("insert round result: %w", err)
	}
	return nil
}
