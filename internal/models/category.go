package models

import (
	"time"

	"moneybook/internal/uuid"
)

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeExpense CategoryType = "expense"
	CategoryTypeIncome  CategoryType = "income"
)

// IsValid reports whether t is a known category type.
func (t CategoryType) IsValid() bool {
	return t == CategoryTypeExpense || t == CategoryTypeIncome
}

// DefaultCategoryColor is assigned to categories created without a color.
const DefaultCategoryColor = "#00e5ff"

// UncategorizedID identifies the synthetic bucket for expenses whose
// category is missing or unknown.
const UncategorizedID = "uncategorized"

// Category represents a transaction category. ParentID, when set, must point
// at a category of the same Type.
type Category struct {
	ID        string       `gorm:"primaryKey;size:36" json:"id"`
	UserID    string       `gorm:"size:36;not null;index" json:"user_id,omitempty"`
	Name      string       `gorm:"not null" json:"name"`
	Type      CategoryType `gorm:"not null" json:"type"`
	ParentID  *string      `gorm:"size:36" json:"parent_id"`
	Color     string       `json:"color"`
	CreatedAt time.Time    `json:"created_at"`
}

// Uncategorized returns the synthetic category used in expense rollups.
func Uncategorized() Category {
	return Category{ID: UncategorizedID, Name: "Uncategorized", Type: CategoryTypeExpense}
}

// NewCategory returns a fully populated category, filling unset fields with
// defaults. It never fails.
func NewCategory(c Category) Category {
	if c.ID == "" {
		c.ID = uuid.New()
	}
	if c.Type == "" {
		c.Type = CategoryTypeExpense
	}
	if c.Color == "" {
		c.Color = DefaultCategoryColor
	}
	if c.ParentID != nil && *c.ParentID == "" {
		c.ParentID = nil
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return c
}
