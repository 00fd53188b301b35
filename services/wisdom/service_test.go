package wisdom

import (
	"context"
	"errors"
	"testing"
	"time"

	"barakah/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	out   string
	err   error
	calls int
}

func (f *fakeGenerator) GenerateContent(context.Context, string) (string, error) {
	f.calls++
	return f.out, f.err
}

func newTestStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, time.Hour)
}

func TestStaticIsDeterministicPerDay(t *testing.T) {
	s := NewStatic()
	ctx := context.Background()

	a, err := s.Today(ctx, "2024-03-10")
	require.NoError(t, err)
	b, err := s.Today(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a.Content)
	assert.NotEmpty(t, a.Source)
}

func TestServiceWithoutGeneratorUsesBuiltins(t *testing.T) {
	svc := NewService(nil, nil, nil)
	w, err := svc.Today(context.Background(), "2024-03-10")
	require.NoError(t, err)

	want, _ := NewStatic().Today(context.Background(), "2024-03-10")
	assert.Equal(t, want, w)
}

func TestServiceCachesGeneratedQuote(t *testing.T) {
	gen := &fakeGenerator{out: "```json\n{\"content\": \"So remember Me; I will remember you.\", \"source\": \"Quran, 2:152\"}\n```"}
	svc := NewService(gen, newTestStore(t), nil)
	ctx := context.Background()

	first, err := svc.Today(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, "So remember Me; I will remember you.", first.Content)
	assert.Equal(t, "Quran, 2:152", first.Source)

	second, err := svc.Today(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, gen.calls, "second read is served from the cache")
}

func TestServiceFallsBackOnGeneratorFailure(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{name: "error", gen: &fakeGenerator{err: errors.New("quota exceeded")}},
		{name: "not json", gen: &fakeGenerator{out: "Be kind."}},
		{name: "missing source", gen: &fakeGenerator{out: `{"content": "Be kind."}`}},
	}

	want, _ := NewStatic().Today(context.Background(), "2024-03-10")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.gen, newTestStore(t), nil)
			w, err := svc.Today(context.Background(), "2024-03-10")
			require.NoError(t, err)
			assert.Equal(t, want, w)
		})
	}
}

func TestRedisStoreFirstWriterWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	miss, err := store.Get(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, store.Set(ctx, "2024-03-10", models.Wisdom{ID: "a", Content: "first", Source: "x"}))
	require.NoError(t, store.Set(ctx, "2024-03-10", models.Wisdom{ID: "b", Content: "second", Source: "y"}))

	got, err := store.Get(ctx, "2024-03-10")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "first", got.Content)
}

func TestServiceFallbackIsKeptForTheDay(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	svc := NewService(gen, newTestStore(t), nil)
	ctx := context.Background()

	first, err := svc.Today(ctx, "2024-03-10")
	require.NoError(t, err)
	want, _ := NewStatic().Today(ctx, "2024-03-10")
	assert.Equal(t, want, first)

	// generation recovers later the same day
	gen.err = nil
	gen.out = `{"content": "Generated quote", "source": "Quran, 1:1"}`

	second, err := svc.Today(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, first, second, "every reminder of the day carries the same text")
	assert.Equal(t, 1, gen.calls)

	next, err := svc.Today(ctx, "2024-03-11")
	require.NoError(t, err)
	assert.Equal(t, "Generated quote", next.Content)
}
