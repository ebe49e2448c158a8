package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	apperrors "moneybook/internal/errors"
	"moneybook/internal/events"
	"moneybook/internal/models"
)

var categoryUpdateColumns = []string{"name", "type", "parent_id", "color"}

// categoryService handles category-related business logic.
type categoryService struct {
	db  *gorm.DB
	bus *events.Bus
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB, bus *events.Bus) CategoryServicer {
	return &categoryService{db: db, bus: bus}
}

// GetCategories returns the user's categories ordered by type then name.
func (s *categoryService) GetCategories(ctx context.Context, userID string) ([]models.Category, error) {
	categories := []models.Category{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("type ASC, name ASC").
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetCategoryByID returns a single category owned by the user.
func (s *categoryService) GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := findScoped(s.db.WithContext(ctx), &category, categoryID, userID, apperrors.ErrCategoryNotFound); err != nil {
		return nil, err
	}
	return &category, nil
}

// UpsertCategory inserts the category or overwrites the existing row with
// the same id. A parent must belong to the user and share the category's type.
func (s *categoryService) UpsertCategory(ctx context.Context, userID string, category models.Category) (*models.Category, error) {
	category.UserID = userID
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if category.Type != "" && !category.Type.IsValid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported category type")
	}
	category = models.NewCategory(category)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owner, err := ownerOf(tx, &models.Category{}, category.ID, userID)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if owner == rowForeign {
			return apperrors.ErrCategoryNotFound
		}

		if category.ParentID != nil {
			if *category.ParentID == category.ID {
				return apperrors.ErrSelfParentCategory
			}
			var parent models.Category
			if err := findScoped(tx, &parent, *category.ParentID, userID, apperrors.ErrParentCategoryNotFound); err != nil {
				return err
			}
			if parent.Type != category.Type {
				return apperrors.ErrParentCategoryType
			}
		}

		if owner == rowOwned {
			var mismatched int64
			if err := tx.Model(&models.Category{}).
				Where("user_id = ? AND parent_id = ? AND type <> ?", userID, category.ID, category.Type).
				Count(&mismatched).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if mismatched > 0 {
				return apperrors.WithMessage(apperrors.ErrParentCategoryType, "Subcategories must have the same type as their parent")
			}
		}

		if err := upsertByID(tx, &category, categoryUpdateColumns); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err)
	}

	saved, err := s.GetCategoryByID(ctx, userID, category.ID)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.bus, events.CategorySaved, userID, saved.ID)
	return saved, nil
}

// DeleteCategory removes the category unless a transaction still uses it.
// Subcategories are detached from the deleted parent.
func (s *categoryService) DeleteCategory(ctx context.Context, userID, categoryID string) (DeleteResult, error) {
	var result DeleteResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := findScoped(tx, &category, categoryID, userID, apperrors.ErrCategoryNotFound); err != nil {
			return err
		}

		var refs int64
		if err := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND category_id = ?", userID, categoryID).
			Count(&refs).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if refs > 0 {
			result = DeleteResultBlocked
			return nil
		}

		if err := tx.Model(&models.Category{}).
			Where("user_id = ? AND parent_id = ?", userID, categoryID).
			Update("parent_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("id = ? AND user_id = ?", categoryID, userID).Delete(&models.Category{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		result = DeleteResultDeleted
		return nil
	})
	if err != nil {
		return "", asAppError(err)
	}

	if result == DeleteResultDeleted {
		publish(ctx, s.bus, events.CategoryDeleted, userID, categoryID)
	}
	return result, nil
}
