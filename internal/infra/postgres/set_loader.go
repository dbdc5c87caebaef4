package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-arena-service/internal/domain"
)

// SetLoader loads question-set JSONB from Postgres.
type SetLoader struct {
	pool *pgxpool.Pool
}

func NewSetLoader(pool *pgxpool.Pool) *SetLoader {
	return &SetLoader{pool: pool}
}

func (l *SetLoader) LoadSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM question_sets WHERE id=$1`, setID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuestionSet{}, domain.ErrSetNotFound
	}
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("load question set: %w", err)
	}
	var set domain.QuestionSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return domain.QuestionSet{}, fmt.Errorf("unmarshal question set: %w", err)
	}
	return set, nil
}
