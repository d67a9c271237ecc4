package repository

import (
	"context"
	"errors"
	"gorm.io/gorm"
	"linkednotes/cmd/internal/domain/entity"
)

type DefaultUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *DefaultUserRepository {
	return &DefaultUserRepository{db: db}
}

// Create inserts user, returning ErrDuplicate when the username is taken.
func (u *DefaultUserRepository) Create(ctx context.Context, user *entity.User) error {
	return translate(u.db.WithContext(ctx).Create(user).Error)
}

func (u *DefaultUserRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	var user entity.User
	err := u.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *DefaultUserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	err := u.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *DefaultUserRepository) FindByToken(ctx context.Context, token string) (*entity.User, error) {
	var user entity.User
	err := u.db.WithContext(ctx).Where("token = ?", token).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetToken overwrites the persisted session token of the user.
func (u *DefaultUserRepository) SetToken(ctx context.Context, userID int64, token string) error {
	res := u.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userID).
		Update("token", token)
	if res.Error != nil {
		return translate(res.Error)
	}

	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearToken removes token from whichever user holds it. Unknown tokens are a no-op.
func (u *DefaultUserRepository) ClearToken(ctx context.Context, token string) error {
	return u.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("token = ?", token).
		Update("token", nil).Error
}
