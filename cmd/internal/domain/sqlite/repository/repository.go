package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrDuplicate is returned when a write breaks a unique constraint.
	ErrDuplicate = errors.New("duplicate key")

	// ErrForeignKey is returned when a write references a missing row.
	ErrForeignKey = errors.New("foreign key violation")
)

// translate maps store integrity violations onto the package sentinels.
// glebarez/sqlite does not always translate, so the message is checked too.
func translate(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(msg, "UNIQUE constraint failed"):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated), strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return ErrForeignKey
	}
	return err
}

// ownedBy restricts a notes query to owner. A nil owner disables the filter.
func ownedBy(owner *int64) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if owner == nil {
			return db
		}
		return db.Where("notes.user_id = ?", *owner)
	}
}
