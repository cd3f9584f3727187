package todo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/todos/internal/translation"
)

var (
	ErrEmptyPatch        = errors.New("no valid fields to update")
	ErrLanguageRequired  = errors.New("target language is required")
	ErrTranslatorMissing = errors.New("translation provider is not configured")
)

// TranslationResult is the body of a successful translate call.
type TranslationResult struct {
	TranslatedDescription string `json:"translatedDescription"`
	Cached                bool   `json:"cached"`
}

// Service implements the item operations on top of a Store and a translation provider.
type Service struct {
	store      Store
	translator translation.Provider
	logger     zerolog.Logger
}

func NewService(store Store, translator translation.Provider, logger zerolog.Logger) *Service {
	return &Service{
		store:      store,
		translator: translator,
		logger:     logger.With().Str("component", "todo_service").Logger(),
	}
}

// Create stores item as given, overwriting any item with the same key.
func (s *Service) Create(ctx context.Context, item Item) (Item, error) {
	item.EnsureTranslations()
	if err := s.store.PutItem(ctx, item); err != nil {
		return Item{}, fmt.Errorf("put item: %w", err)
	}
	return item, nil
}

// List returns the owner's items, filtered by exact status when status is non-empty.
// The result is never nil.
func (s *Service) List(ctx context.Context, ownerKey, status string) ([]Item, error) {
	items, err := s.store.QueryItems(ctx, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}

	out := make([]Item, 0, len(items))
	for _, item := range items {
		if status != "" && item.Status != status {
			continue
		}
		item.EnsureTranslations()
		out = append(out, item)
	}
	return out, nil
}

// Update merges patch into an existing item. An empty patch fails with
// ErrEmptyPatch before the store is touched.
func (s *Service) Update(ctx context.Context, ownerKey, itemID string, patch Patch) (*Item, error) {
	if patch.Empty() {
		return nil, ErrEmptyPatch
	}
	item, err := s.store.UpdateItem(ctx, ownerKey, itemID, patch)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	item.EnsureTranslations()
	return item, nil
}

// Translate returns the item's description in lang. A stored translation is returned
// as-is; otherwise the provider is called and the result written back before returning.
func (s *Service) Translate(ctx context.Context, ownerKey, itemID, lang string) (*TranslationResult, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return nil, ErrLanguageRequired
	}

	item, err := s.store.GetItem(ctx, ownerKey, itemID)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	if cached, ok := item.CachedTranslation(lang); ok {
		return &TranslationResult{TranslatedDescription: cached, Cached: true}, nil
	}

	if s.translator == nil {
		return nil, ErrTranslatorMissing
	}
	resp, err := s.translator.Translate(ctx, translation.TranslateRequest{
		Text:       item.Description,
		SourceLang: translation.AutoDetect,
		TargetLang: lang,
	})
	if err != nil {
		return nil, fmt.Errorf("translate description: %w", err)
	}

	if err := s.store.SetTranslation(ctx, ownerKey, itemID, lang, resp.Text); err != nil {
		return nil, fmt.Errorf("store translation: %w", err)
	}

	s.logger.Debug().
		Str("owner_key", ownerKey).
		Str("item_id", itemID).
		Str("lang", lang).
		Str("provider", resp.ProviderName).
		Int64("latency_ms", resp.LatencyMs).
		Msg("translation stored")

	return &TranslationResult{TranslatedDescription: resp.Text, Cached: false}, nil
}
