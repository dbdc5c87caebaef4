package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-arena-service/internal/domain"
)

// SetLoader fetches question sets from a backing store (e.g. Postgres JSONB).
type SetLoader interface {
	LoadSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// QuestionBank caches question sets with TTL to avoid repeated store hits when
// a host pushes question after question from the same set.
type QuestionBank struct {
	loader SetLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	set       domain.QuestionSet
	expiresAt time.Time
}

func NewQuestionBank(loader SetLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedSet),
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
	now := b.clock()

	b.mu.RLock()
	if entry, ok := b.cache[setID]; ok && entry.expiresAt.After(now) {
		b.mu.RUnlock()
		return entry.set, nil
	}
	b.mu.RUnlock()

	result, err, _ := b.sf.Do(setID, func() (interface{}, error) {
		now := b.clock()
		b.mu.RLock()
		if entry, ok := b.cache[setID]; ok && entry.expiresAt.After(now) {
			b.mu.RUnlock()
			return entry.set, nil
		}
		b.mu.RUnlock()

		set, err := b.loader.LoadSet(ctx, setID)
		if err != nil {
			return domain.QuestionSet{}, err
		}

		b.mu.Lock()
		b.cache[setID] = cachedSet{set: set, expiresAt: now.Add(b.ttlWithJitter())}
		b.mu.Unlock()
		return set, nil
	})
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return result.(domain.QuestionSet), nil
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}

// StaticSetLoader serves sets from an in-memory map (tests/demos, and the
// fallback when no database is configured).
type StaticSetLoader struct {
	sets map[string]domain.QuestionSet
}

func NewStaticSetLoader(sets map[string]domain.QuestionSet) *StaticSetLoader {
	return &StaticSetLoader{sets: sets}
}

func (l *StaticSetLoader) LoadSet(_ context.Context, setID string) (domain.QuestionSet, error) {
	if set, ok := l.sets[setID]; ok {
		return set, nil
	}
	return domain.QuestionSet{}, domain.ErrSetNotFound
}
