package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"horse.fit/todos/internal/todo"
)

const itemColumns = `owner_key, item_id, description, status, priority, completed, translations`

func (p *Pool) PutItem(ctx context.Context, item todo.Item) error {
	translations, err := encodeTranslations(item.Translations)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO todos.items (
	owner_key, item_id, description, status, priority, completed, translations, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, now(), now())
ON CONFLICT (owner_key, item_id) DO UPDATE SET
	description = EXCLUDED.description,
	status = EXCLUDED.status,
	priority = EXCLUDED.priority,
	completed = EXCLUDED.completed,
	translations = EXCLUDED.translations,
	updated_at = now()
`
	if _, err := p.Exec(ctx, q,
		item.OwnerKey,
		item.ItemID,
		item.Description,
		item.Status,
		item.Priority,
		item.Completed,
		string(translations),
	); err != nil {
		return fmt.Errorf("upsert todo item: %w", err)
	}
	return nil
}

func (p *Pool) GetItem(ctx context.Context, ownerKey, itemID string) (*todo.Item, error) {
	q := `SELECT ` + itemColumns + `
FROM todos.items
WHERE owner_key = $1
  AND item_id = $2
`
	item, err := scanItem(p.QueryRow(ctx, q, ownerKey, itemID))
	if err != nil {
		if IsNoRows(err) {
			return nil, todo.ErrItemNotFound
		}
		return nil, fmt.Errorf("query todo item: %w", err)
	}
	return item, nil
}

func (p *Pool) QueryItems(ctx context.Context, ownerKey string) ([]todo.Item, error) {
	q := `SELECT ` + itemColumns + `
FROM todos.items
WHERE owner_key = $1
ORDER BY item_id ASC
`
	rows, err := p.Query(ctx, q, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("query todo items: %w", err)
	}
	defer rows.Close()

	items := make([]todo.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todo items: %w", err)
	}
	return items, nil
}

func (p *Pool) UpdateItem(ctx context.Context, ownerKey, itemID string, patch todo.Patch) (*todo.Item, error) {
	sets, args := buildUpdateSet(patch, 3)
	if len(sets) == 0 {
		return nil, fmt.Errorf("update todo item: patch is empty")
	}

	q := `UPDATE todos.items
SET ` + strings.Join(sets, ",\n\t") + `,
	updated_at = now()
WHERE owner_key = $1
  AND item_id = $2
RETURNING ` + itemColumns

	args = append([]any{ownerKey, itemID}, args...)
	item, err := scanItem(p.QueryRow(ctx, q, args...))
	if err != nil {
		if IsNoRows(err) {
			return nil, todo.ErrItemNotFound
		}
		return nil, fmt.Errorf("update todo item: %w", err)
	}
	return item, nil
}

func (p *Pool) SetTranslation(ctx context.Context, ownerKey, itemID, lang, text string) error {
	const q = `
UPDATE todos.items
SET translations = COALESCE(translations, '{}'::jsonb) || jsonb_build_object($3::text, $4::text),
	updated_at = now()
WHERE owner_key = $1
  AND item_id = $2
`
	tag, err := p.Exec(ctx, q, ownerKey, itemID, lang, text)
	if err != nil {
		return fmt.Errorf("store todo translation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return todo.ErrItemNotFound
	}
	return nil
}

// buildUpdateSet returns one "column = $n" clause per present patch field,
// numbering placeholders from firstArg.
func buildUpdateSet(patch todo.Patch, firstArg int) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, firstArg+len(args)))
		args = append(args, value)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.Priority != nil {
		add("priority", *patch.Priority)
	}
	if patch.Completed != nil {
		add("completed", *patch.Completed)
	}
	return sets, args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*todo.Item, error) {
	var (
		item         todo.Item
		translations []byte
	)
	if err := row.Scan(
		&item.OwnerKey,
		&item.ItemID,
		&item.Description,
		&item.Status,
		&item.Priority,
		&item.Completed,
		&translations,
	); err != nil {
		return nil, err
	}

	item.Translations = map[string]string{}
	if len(translations) > 0 {
		if err := json.Unmarshal(translations, &item.Translations); err != nil {
			return nil, fmt.Errorf("decode translations: %w", err)
		}
		item.EnsureTranslations()
	}
	return &item, nil
}

func encodeTranslations(translations map[string]string) ([]byte, error) {
	if translations == nil {
		translations = map[string]string{}
	}
	raw, err := json.Marshal(translations)
	if err != nil {
		return nil, fmt.Errorf("encode translations: %w", err)
	}
	return raw, nil
}
