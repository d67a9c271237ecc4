package entity

// User is the account that owns notes and holds login credentials.
type User struct {
	ID           int64   `gorm:"primaryKey"`
	Username     string  `gorm:"not null;uniqueIndex"`
	PasswordHash string  `gorm:"not null"`
	Token        *string `gorm:"uniqueIndex"` // Only populated by the "db" session store
	CreatedAt    int64   `gorm:"not null;autoCreateTime:false"`
	UpdatedAt    int64   `gorm:"not null;autoUpdateTime:false"`
}
