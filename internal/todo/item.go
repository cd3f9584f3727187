// Package todo holds the to-do item model and the request handling around it:
// the four item operations and the router that dispatches to them.
package todo

const (
	DefaultStatus   = "pending"
	DefaultPriority = 1
)

// Item is the only persisted entity. (OwnerKey, ItemID) is its immutable identity.
type Item struct {
	OwnerKey     string            `json:"ownerKey" dynamodbav:"ownerKey"`
	ItemID       string            `json:"itemId" dynamodbav:"itemId"`
	Description  string            `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Status       string            `json:"status" dynamodbav:"status"`
	Priority     int               `json:"priority" dynamodbav:"priority"`
	Completed    bool              `json:"completed" dynamodbav:"completed"`
	Translations map[string]string `json:"translations" dynamodbav:"translations"`
}

// NewItem applies the creation defaults. Empty status and zero priority count as unset.
func NewItem(ownerKey, itemID, description, status string, priority int) Item {
	if status == "" {
		status = DefaultStatus
	}
	if priority == 0 {
		priority = DefaultPriority
	}
	return Item{
		OwnerKey:     ownerKey,
		ItemID:       itemID,
		Description:  description,
		Status:       status,
		Priority:     priority,
		Completed:    false,
		Translations: map[string]string{},
	}
}

// CachedTranslation returns the stored translation for lang, if any.
func (i *Item) CachedTranslation(lang string) (string, bool) {
	if i == nil || i.Translations == nil {
		return "", false
	}
	text, ok := i.Translations[lang]
	if !ok || text == "" {
		return "", false
	}
	return text, true
}

// Patch is a field-level merge. Nil fields are left untouched.
type Patch struct {
	Description *string
	Status      *string
	Priority    *int
	Completed   *bool
}

func (p Patch) Empty() bool {
	return p.Description == nil && p.Status == nil && p.Priority == nil && p.Completed == nil
}

// Apply merges p into item in place.
func (p Patch) Apply(item *Item) {
	if item == nil {
		return
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Status != nil {
		item.Status = *p.Status
	}
	if p.Priority != nil {
		item.Priority = *p.Priority
	}
	if p.Completed != nil {
		item.Completed = *p.Completed
	}
}

// EnsureTranslations replaces a nil translations map so items always serialize as {}.
func (i *Item) EnsureTranslations() {
	if i != nil && i.Translations == nil {
		i.Translations = map[string]string{}
	}
}
