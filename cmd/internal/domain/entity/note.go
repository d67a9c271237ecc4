package entity

type Note struct {
	ID        int64  `gorm:"primaryKey"`
	UserID    *int64 `gorm:"index"` // References: users(id), nil when ownership is off
	Title     string `gorm:"not null"`
	Content   string `gorm:"not null"`
	CreatedAt int64  `gorm:"not null;autoCreateTime:false"`
	UpdatedAt int64  `gorm:"not null;autoUpdateTime:false"`

	// Relations
	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE;"`
}

// OwnedBy reports whether the note belongs to userID. A nil userID
// means no ownership filter is in effect.
func (n *Note) OwnedBy(userID *int64) bool {
	if userID == nil {
		return true
	}
	return n.UserID != nil && *n.UserID == *userID
}

// NoteTag is one edge of the note <-> tag relation.
type NoteTag struct {
	NoteID int64 `gorm:"primaryKey;autoIncrement:false"`
	TagID  int64 `gorm:"primaryKey;autoIncrement:false;index"`

	// Relations
	Note *Note `gorm:"foreignKey:NoteID;references:ID;constraint:OnDelete:CASCADE;"`
	Tag  *Tag  `gorm:"foreignKey:TagID;references:ID;constraint:OnDelete:CASCADE;"`
}

// TaggedRow is the projection used when joining tags onto a batch of notes.
type TaggedRow struct {
	NoteID  int64
	TagID   int64
	TagName string
}
