package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-arena-service/internal/domain"
	"quiz-arena-service/internal/infra/memory"
)

func TestQuestionBankCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	loader := &countingLoader{
		SetLoader: memory.NewStaticSetLoader(map[string]domain.QuestionSet{
			"set-1": sampleSet(),
		}),
	}
	bank := NewQuestionBank(client, loader, time.Minute)

	q, err := bank.GetQuestion(context.Background(), "set-1", 0)
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	if q.CorrectIndex != 1 {
		t.Fatalf("unexpected question %+v", q)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("arena:set:set-1") {
		t.Fatalf("expected set cached in redis")
	}

	// Second read hits the redis cache, loader not incremented.
	if _, err := bank.GetQuestion(context.Background(), "set-1", 1); err != nil {
		t.Fatalf("get question 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

type countingLoader struct {
	memory.SetLoader
	calls int
}

func (l *countingLoader) LoadSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	l.calls++
	return l.SetLoader.LoadSet(ctx, setID)
}

func sampleSet() domain.QuestionSet {
	return domain.QuestionSet{
		ID: "set-1",
		Questions: []domain.QuestionSpec{
			{
				Text:             "What is 2 + 2?",
				Options:          []string{"3", "4", "5"},
				CorrectIndex:     1,
				TimeLimitSeconds: 15,
			},
			{
				Text:             "What is 9 * 7?",
				Options:          []string{"56", "63", "72"},
				CorrectIndex:     1,
				TimeLimitSeconds: 20,
			},
		},
	}
}
