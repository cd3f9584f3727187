package db

import (
	"encoding/json"
	"time"
)

// TodoItem maps todos.items.
type TodoItem struct {
	OwnerKey     string          `gorm:"column:owner_key;type:text;primaryKey"`
	ItemID       string          `gorm:"column:item_id;type:text;primaryKey"`
	Description  string          `gorm:"column:description;type:text;not null;default:''"`
	Status       string          `gorm:"column:status;type:text;not null"`
	Priority     int             `gorm:"column:priority;type:integer;not null"`
	Completed    bool            `gorm:"column:completed;type:boolean;not null;default:false"`
	Translations json.RawMessage `gorm:"column:translations;type:jsonb;not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (TodoItem) TableName() string { return "todos.items" }

func autoMigrateModels() []any {
	return []any{
		&TodoItem{},
	}
}
