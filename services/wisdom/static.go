package wisdom

import (
	"context"
	"hash/fnv"

	"barakah/models"
)

var builtin = []models.Wisdom{
	{ID: "wisdom-1", Content: "The believer is not one who eats his fill while his neighbor goes hungry.", Source: "Prophet Muhammad ﷺ"},
	{ID: "wisdom-2", Content: "Verily, with hardship, there is relief.", Source: "Quran, 94:6"},
	{ID: "wisdom-3", Content: "The best of you are those who are best to their families.", Source: "Prophet Muhammad ﷺ"},
	{ID: "wisdom-4", Content: "So remember Me; I will remember you.", Source: "Quran, 2:152"},
	{ID: "wisdom-5", Content: "The most beloved deeds to Allah are those done consistently, even if small.", Source: "Prophet Muhammad ﷺ"},
}

// Static picks from a fixed list, deterministically per day.
type Static struct {
	quotes []models.Wisdom
}

func NewStatic(quotes ...models.Wisdom) *Static {
	if len(quotes) == 0 {
		quotes = builtin
	}
	return &Static{quotes: quotes}
}

func (s *Static) Today(_ context.Context, day string) (models.Wisdom, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(day))
	return s.quotes[int(h.Sum32()%uint32(len(s.quotes)))], nil
}
