package repository

import (
	"context"
	"errors"
	"gorm.io/gorm"
	"linkednotes/cmd/internal/domain/entity"
)

type DefaultAttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *DefaultAttachmentRepository {
	return &DefaultAttachmentRepository{db: db}
}

func (a *DefaultAttachmentRepository) Create(ctx context.Context, attachment *entity.Attachment) error {
	return translate(a.db.WithContext(ctx).Create(attachment).Error)
}

func (a *DefaultAttachmentRepository) FindByFilename(ctx context.Context, filename string) (*entity.Attachment, error) {
	var attachment entity.Attachment
	err := a.db.WithContext(ctx).Where("filename = ?", filename).First(&attachment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (a *DefaultAttachmentRepository) FindByNoteID(ctx context.Context, noteID int64) ([]*entity.Attachment, error) {
	var attachments []*entity.Attachment
	err := a.db.WithContext(ctx).
		Where("note_id = ?", noteID).
		Order("id").
		Find(&attachments).Error
	if err != nil {
		return nil, err
	}
	return attachments, nil
}

// FindAllFilenames returns the stored name of every attachment row.
func (a *DefaultAttachmentRepository) FindAllFilenames(ctx context.Context) ([]string, error) {
	var names []string
	err := a.db.WithContext(ctx).
		Model(&entity.Attachment{}).
		Pluck("filename", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}
