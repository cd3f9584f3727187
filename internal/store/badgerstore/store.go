// Package badgerstore keeps to-do items in an embedded Badger database.
package badgerstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"horse.fit/todos/internal/todo"
)

const (
	keyPrefix       = "todo/"
	maxConflictRuns = 3
)

type Options struct {
	Path     string
	InMemory bool
	Logger   zerolog.Logger
}

type Store struct {
	db *badger.DB
}

func Open(opts Options) (*Store, error) {
	path := strings.TrimSpace(opts.Path)
	if opts.InMemory {
		path = ""
	} else if path == "" {
		return nil, fmt.Errorf("badger path is required")
	}

	badgerOpts := badger.DefaultOptions(path).
		WithInMemory(opts.InMemory).
		WithLogger(zerologAdapter{logger: opts.Logger.With().Str("component", "badger").Logger()})

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(_ context.Context) error {
	if s == nil || s.db == nil || s.db.IsClosed() {
		return fmt.Errorf("badger database is not open")
	}
	return nil
}

func (s *Store) PutItem(_ context.Context, item todo.Item) error {
	item.EnsureTranslations()
	value, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode todo item: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(itemKey(item.OwnerKey, item.ItemID), value)
	})
	if err != nil {
		return fmt.Errorf("put todo item: %w", err)
	}
	return nil
}

func (s *Store) GetItem(_ context.Context, ownerKey, itemID string) (*todo.Item, error) {
	var item *todo.Item
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		item, err = readItem(txn, itemKey(ownerKey, itemID))
		return err
	})
	if err != nil {
		if errors.Is(err, todo.ErrItemNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get todo item: %w", err)
	}
	return item, nil
}

func (s *Store) QueryItems(ctx context.Context, ownerKey string) ([]todo.Item, error) {
	prefix := ownerPrefix(ownerKey)
	items := make([]todo.Item, 0)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var item todo.Item
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &item)
			}); err != nil {
				return fmt.Errorf("decode todo item: %w", err)
			}
			item.EnsureTranslations()
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query todo items: %w", err)
	}
	return items, nil
}

func (s *Store) UpdateItem(_ context.Context, ownerKey, itemID string, patch todo.Patch) (*todo.Item, error) {
	var updated *todo.Item
	err := s.modify(ownerKey, itemID, func(item *todo.Item) {
		patch.Apply(item)
		copied := *item
		updated = &copied
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) SetTranslation(_ context.Context, ownerKey, itemID, lang, text string) error {
	return s.modify(ownerKey, itemID, func(item *todo.Item) {
		item.EnsureTranslations()
		item.Translations[lang] = text
	})
}

// modify runs a read-modify-write of one item in a single transaction.
// Conflicting writers are retried.
func (s *Store) modify(ownerKey, itemID string, change func(*todo.Item)) error {
	key := itemKey(ownerKey, itemID)

	var err error
	for attempt := 0; attempt < maxConflictRuns; attempt++ {
		err = s.db.Update(func(txn *badger.Txn) error {
			item, err := readItem(txn, key)
			if err != nil {
				return err
			}
			change(item)
			value, err := json.Marshal(item)
			if err != nil {
				return fmt.Errorf("encode todo item: %w", err)
			}
			return txn.Set(key, value)
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, todo.ErrItemNotFound) {
			return err
		}
		return fmt.Errorf("update todo item: %w", err)
	}
	return nil
}

func readItem(txn *badger.Txn, key []byte) (*todo.Item, error) {
	entry, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, todo.ErrItemNotFound
		}
		return nil, err
	}

	var item todo.Item
	if err := entry.Value(func(val []byte) error {
		return json.Unmarshal(val, &item)
	}); err != nil {
		return nil, fmt.Errorf("decode todo item: %w", err)
	}
	item.EnsureTranslations()
	return &item, nil
}

// ownerPrefix is "todo/" + uint32 length + owner, so "ab" never matches under "a".
func ownerPrefix(ownerKey string) []byte {
	buf := make([]byte, 0, len(keyPrefix)+4+len(ownerKey))
	buf = append(buf, keyPrefix...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(ownerKey)))
	return append(buf, ownerKey...)
}

func itemKey(ownerKey, itemID string) []byte {
	return append(ownerPrefix(ownerKey), itemID...)
}

type zerologAdapter struct {
	logger zerolog.Logger
}

func (a zerologAdapter) Errorf(format string, args ...any) {
	a.logger.Error().Msgf(strings.TrimSpace(format), args...)
}

func (a zerologAdapter) Warningf(format string, args ...any) {
	a.logger.Warn().Msgf(strings.TrimSpace(format), args...)
}

func (a zerologAdapter) Infof(format string, args ...any) {
	a.logger.Debug().Msgf(strings.TrimSpace(format), args...)
}

func (a zerologAdapter) Debugf(format string, args ...any) {
	a.logger.Trace().Msgf(strings.TrimSpace(format), args...)
}
