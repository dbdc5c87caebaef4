package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-arena-service/internal/domain"
)

// SetLoader fetches question sets from a backing store (e.g. Postgres JSONB).
type SetLoader interface {
	LoadSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// QuestionBank caches whole question sets in Redis as JSON and falls back to a
// loader on cache miss. Sets are stored as: SET arena:set:{setID} {json}.
type QuestionBank struct {
	client *redis.Client
	loader SetLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionBank(client *redis.Client, loader SetLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *QuestionBank) GetQuestion(ctx context.Context, setID string, index int) (domain.QuestionSpec, error) {
	set, err := b.getSet(ctx, setID)
	if err != nil {
		return domain.QuestionSpec{}, err
	}
	if index < 0 || index >= len(set.Questions) {
		return domain.QuestionSpec{}, domain.ErrQuestionNotFound
	}
	return set.Questions[index], nil
}

func (b *QuestionBank) getSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	key := b.key(setID)

	if raw, err := b.client.Get(ctx, key).Bytes(); err == nil && len(raw) > 0 {
		var set domain.QuestionSet
		if err := json.Unmarshal(raw, &set); err == nil {
			return set, nil
		}
	}

	result, err, _ := b.sf.Do(setID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := b.client.Get(ctx, key).Bytes(); err == nil && len(raw) > 0 {
			var set domain.QuestionSet
			if err := json.Unmarshal(raw, &set); err == nil {
				return set, nil
			}
		}

		set, err := b.loader.LoadSet(ctx, setID)
		if err != nil {
			return domain.QuestionSet{}, err
		}

		if raw, err := json.Marshal(set); err == nil {
			_ = b.client.Set(ctx, key, raw, b.ttlWithJitter()).Err()
		}
		return set, nil
	})
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return result.(domain.QuestionSet), nil
}

func (b *QuestionBank) key(setID string) string {
	return "arena:set:" + setID
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}
