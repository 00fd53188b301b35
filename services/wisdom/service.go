// File: services/wisdom/service.go
package wisdom

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"barakah/models"

	"go.uber.org/zap"
)

const promptTemplate = `You write short daily reminders for a Muslim habit app.
Return one authentic Quran verse or hadith for the date %s as JSON:
{"content": "<quote text>", "source": "<e.g. Quran, 94:6 or Prophet Muhammad ﷺ>"}
Return only the JSON object.`

// Service yields the quote of the day. Generated quotes are cached per day so every
// reminder for that day carries the same text; any failure falls back to the static list.
type Service struct {
	generator Generator
	store     Store
	fallback  *Static
	logger    *zap.Logger
}

// NewService accepts a nil generator and a nil store; both are optional.
func NewService(generator Generator, store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		generator: generator,
		store:     store,
		fallback:  NewStatic(),
		logger:    logger,
	}
}

func (s *Service) Today(ctx context.Context, day string) (models.Wisdom, error) {
	if s.store != nil {
		cached, err := s.store.Get(ctx, day)
		if err != nil {
			s.logger.Warn("wisdom cache read failed", zap.String("day", day), zap.Error(err))
		} else if cached != nil {
			return *cached, nil
		}
	}

	if s.generator == nil {
		return s.fallback.Today(ctx, day)
	}

	w, err := s.generate(ctx, day)
	if err != nil {
		s.logger.Warn("wisdom generation failed, using built-in quote", zap.String("day", day), zap.Error(err))
		if w, err = s.fallback.Today(ctx, day); err != nil {
			return w, err
		}
	}
	return s.pin(ctx, day, w), nil
}

// pin caches w as the day's quote, fallback included, so a later successful
// generation cannot change the text mid-day. Returns whichever quote was cached first.
func (s *Service) pin(ctx context.Context, day string, w models.Wisdom) models.Wisdom {
	if s.store == nil {
		return w
	}
	if err := s.store.Set(ctx, day, w); err != nil {
		s.logger.Warn("wisdom cache write failed", zap.String("day", day), zap.Error(err))
		return w
	}
	if winner, err := s.store.Get(ctx, day); err == nil && winner != nil {
		return *winner
	}
	return w
}

func (s *Service) generate(ctx context.Context, day string) (models.Wisdom, error) {
	raw, err := s.generator.GenerateContent(ctx, fmt.Sprintf(promptTemplate, day))
	if err != nil {
		return models.Wisdom{}, err
	}
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "```"), "```")

	var w models.Wisdom
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &w); err != nil {
		return models.Wisdom{}, fmt.Errorf("wisdom: decode generated quote: %w", err)
	}
	if w.Content == "" || w.Source == "" {
		return models.Wisdom{}, fmt.Errorf("wisdom: generated quote is incomplete")
	}
	w.ID = "generated-" + day
	return w, nil
}
