package todo

import (
	"context"
	"errors"
	"sync"

	"horse.fit/todos/internal/translation"
)

type fakeStore struct {
	mu     sync.Mutex
	items  map[string]Item
	order  []string
	calls  []string
	putErr error
	setErr error
}

func newFakeStore(items ...Item) *fakeStore {
	s := &fakeStore{items: make(map[string]Item)}
	for _, item := range items {
		s.store(item)
	}
	return s
}

func fakeKey(ownerKey, itemID string) string {
	return ownerKey + "\x00" + itemID
}

func (s *fakeStore) store(item Item) {
	key := fakeKey(item.OwnerKey, item.ItemID)
	if _, ok := s.items[key]; !ok {
		s.order = append(s.order, key)
	}
	s.items[key] = cloneItem(item)
}

func cloneItem(item Item) Item {
	if item.Translations != nil {
		translations := make(map[string]string, len(item.Translations))
		for lang, text := range item.Translations {
			translations[lang] = text
		}
		item.Translations = translations
	}
	return item
}

func (s *fakeStore) PutItem(_ context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "put")
	if s.putErr != nil {
		return s.putErr
	}
	s.store(item)
	return nil
}

func (s *fakeStore) GetItem(_ context.Context, ownerKey, itemID string) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "get")
	item, ok := s.items[fakeKey(ownerKey, itemID)]
	if !ok {
		return nil, ErrItemNotFound
	}
	out := cloneItem(item)
	return &out, nil
}

func (s *fakeStore) QueryItems(_ context.Context, ownerKey string) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "query")
	var out []Item
	for _, key := range s.order {
		item := s.items[key]
		if item.OwnerKey == ownerKey {
			out = append(out, cloneItem(item))
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateItem(_ context.Context, ownerKey, itemID string, patch Patch) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "update")
	key := fakeKey(ownerKey, itemID)
	item, ok := s.items[key]
	if !ok {
		return nil, ErrItemNotFound
	}
	patch.Apply(&item)
	s.items[key] = item
	out := cloneItem(item)
	return &out, nil
}

func (s *fakeStore) SetTranslation(_ context.Context, ownerKey, itemID, lang, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "set_translation")
	if s.setErr != nil {
		return s.setErr
	}
	key := fakeKey(ownerKey, itemID)
	item, ok := s.items[key]
	if !ok {
		return ErrItemNotFound
	}
	if item.Translations == nil {
		item.Translations = map[string]string{}
	}
	item.Translations[lang] = text
	s.items[key] = item
	return nil
}

func (s *fakeStore) item(ownerKey, itemID string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[fakeKey(ownerKey, itemID)]
	return cloneItem(item), ok
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type stubTranslator struct {
	mu       sync.Mutex
	calls    int
	requests []translation.TranslateRequest
	text     string
	err      error
}

func (p *stubTranslator) Translate(_ context.Context, req translation.TranslateRequest) (*translation.TranslateResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	if p.text == "" {
		return nil, errors.New("stub translator has no text")
	}
	return &translation.TranslateResponse{
		Text:         p.text,
		SourceLang:   "en",
		TargetLang:   req.TargetLang,
		ProviderName: p.Name(),
	}, nil
}

func (p *stubTranslator) Name() string {
	return "stub"
}

func (p *stubTranslator) SupportedLanguages() []string {
	return nil
}

func (p *stubTranslator) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
