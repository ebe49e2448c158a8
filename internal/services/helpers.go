package services

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "moneybook/internal/errors"
	"moneybook/internal/events"
)

// ownership is the result of looking up a row id across all users.
type ownership int

const (
	rowMissing ownership = iota
	rowOwned
	rowForeign
)

// ownerOf reports whether id exists in model's table and whether userID owns it.
func ownerOf(tx *gorm.DB, model any, id, userID string) (ownership, error) {
	var owners []string
	if err := tx.Model(model).Where("id = ?", id).Limit(1).Pluck("user_id", &owners).Error; err != nil {
		return rowMissing, err
	}
	switch {
	case len(owners) == 0:
		return rowMissing, nil
	case owners[0] == userID:
		return rowOwned, nil
	default:
		return rowForeign, nil
	}
}

// upsertByID inserts row or, when the id already exists, updates the given
// columns in place.
func upsertByID(tx *gorm.DB, row any, updateColumns []string) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(updateColumns),
	}).Create(row).Error
}

// findScoped loads the row with id owned by userID into dest, mapping a
// missing row to notFound.
func findScoped(tx *gorm.DB, dest any, id, userID string, notFound *apperrors.AppError) error {
	err := tx.Where("id = ? AND user_id = ?", id, userID).First(dest).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// asAppError passes AppErrors through and wraps everything else as internal.
func asAppError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

func publish(ctx context.Context, bus *events.Bus, t events.Type, userID, resourceID string) {
	if bus == nil {
		return
	}
	bus.Publish(ctx, events.Event{Type: t, UserID: userID, ResourceID: resourceID})
}
