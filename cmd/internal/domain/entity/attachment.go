package entity

type Attachment struct {
	ID           int64  `gorm:"primaryKey"`
	Filename     string `gorm:"not null;uniqueIndex"`
	OriginalName string `gorm:"not null"`
	Size         int64  `gorm:"not null"`
	ContentType  string `gorm:"not null"`
	NoteID       *int64 `gorm:"index"`
	UserID       *int64 `gorm:"index"`
	CreatedAt    int64  `gorm:"not null;autoCreateTime:false"`

	// Relations
	Note *Note `gorm:"foreignKey:NoteID;references:ID;constraint:OnDelete:CASCADE;"`
	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE;"`
}
