package todo

import (
	"context"
	"errors"
)

var ErrItemNotFound = errors.New("todo item not found")

// Store is the key-value collaborator. Implementations live in internal/db,
// internal/store/badgerstore and internal/store/dynamostore.
type Store interface {
	// PutItem writes the full record, replacing any existing item with the same key.
	PutItem(ctx context.Context, item Item) error
	// GetItem returns ErrItemNotFound when the key does not exist.
	GetItem(ctx context.Context, ownerKey, itemID string) (*Item, error)
	// QueryItems returns every item of one owner in store order.
	QueryItems(ctx context.Context, ownerKey string) ([]Item, error)
	// UpdateItem merges patch into an existing item and returns the updated record.
	UpdateItem(ctx context.Context, ownerKey, itemID string, patch Patch) (*Item, error)
	// SetTranslation writes translations[lang] and nothing else.
	SetTranslation(ctx context.Context, ownerKey, itemID, lang, text string) error
}
