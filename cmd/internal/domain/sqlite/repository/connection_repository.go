package repository

import (
	"context"
	"gorm.io/gorm"
	"linkednotes/cmd/internal/domain/entity"
)

type DefaultConnectionRepository struct {
	db *gorm.DB
}

func NewConnectionRepository(db *gorm.DB) *DefaultConnectionRepository {
	return &DefaultConnectionRepository{db: db}
}

func (c *DefaultConnectionRepository) Save(ctx context.Context, conn *entity.Connection) error {
	return c.db.WithContext(ctx).Save(conn).Error
}

func (c *DefaultConnectionRepository) Delete(ctx context.Context, connID string) error {
	return c.db.WithContext(ctx).
		Where("connection_id = ?", connID).
		Delete(&entity.Connection{}).Error
}

func (c *DefaultConnectionRepository) FindByUserID(ctx context.Context, userID int64) ([]string, error) {
	var ids []string
	result := c.db.WithContext(ctx).
		Model(&entity.Connection{}).
		Where("user_id = ?", userID).
		Pluck("connection_id", &ids)

	if result.Error != nil {
		return nil, result.Error
	}

	return ids, nil
}

func (c *DefaultConnectionRepository) FindAll(ctx context.Context) ([]string, error) {
	var ids []string
	result := c.db.WithContext(ctx).Model(&entity.Connection{}).Pluck("connection_id", &ids)
	return ids, result.Error
}

// FindStale returns connections whose last heartbeat is older than before.
func (c *DefaultConnectionRepository) FindStale(ctx context.Context, before int64) ([]*entity.Connection, error) {
	var conns []*entity.Connection
	err := c.db.WithContext(ctx).
		Where("last_heartbeat_at < ?", before).
		Find(&conns).Error
	return conns, err
}

// UpdateHeartbeat stamps connID as alive at now. found is false for unknown connections.
func (c *DefaultConnectionRepository) UpdateHeartbeat(ctx context.Context, connID string, now int64) (found bool, err error) {
	res := c.db.WithContext(ctx).
		Model(&entity.Connection{}).
		Where("connection_id = ?", connID).
		Update("last_heartbeat_at", now)
	return res.RowsAffected > 0, res.Error
}
