package repository

import (
	"context"
	"errors"
	"gorm.io/gorm"
	"linkednotes/cmd/internal/domain/entity"
)

type DefaultTagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) *DefaultTagRepository {
	return &DefaultTagRepository{db: db}
}

// Create inserts tag, returning ErrDuplicate when the name already exists.
func (t *DefaultTagRepository) Create(ctx context.Context, tag *entity.Tag) error {
	return translate(t.db.WithContext(ctx).Create(tag).Error)
}

func (t *DefaultTagRepository) FindAll(ctx context.Context) ([]*entity.Tag, error) {
	var tags []*entity.Tag
	err := t.db.WithContext(ctx).Order("id").Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (t *DefaultTagRepository) FindByID(ctx context.Context, id int64) (*entity.Tag, error) {
	var tag entity.Tag
	err := t.db.WithContext(ctx).First(&tag, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// Rename sets the name of tag id. found is false when no such tag exists.
func (t *DefaultTagRepository) Rename(ctx context.Context, id int64, name string) (found bool, err error) {
	res := t.db.WithContext(ctx).
		Model(&entity.Tag{}).
		Where("id = ?", id).
		Update("name", name)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Delete removes tag id; its note associations cascade.
func (t *DefaultTagRepository) Delete(ctx context.Context, id int64) (found bool, err error) {
	res := t.db.WithContext(ctx).Delete(&entity.Tag{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindMissingIDs returns the subset of ids that do not exist, in input order.
func (t *DefaultTagRepository) FindMissingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var existing []int64
	err := t.db.WithContext(ctx).
		Model(&entity.Tag{}).
		Where("id IN ?", ids).
		Pluck("id", &existing).Error
	if err != nil {
		return nil, err
	}

	known := make(map[int64]struct{}, len(existing))
	for _, id := range existing {
		known[id] = struct{}{}
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
