package repository

import (
	"context"
	"errors"
	"linkednotes/cmd/internal/domain/entity"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// tagChunkSize bounds the ids bound into one FindTags statement, well below
// SQLite's host parameter limit.
const tagChunkSize = 500

type DefaultNoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *DefaultNoteRepository {
	return &DefaultNoteRepository{db: db}
}

// FindAll returns every note visible to owner, by id.
func (d *DefaultNoteRepository) FindAll(ctx context.Context, owner *int64) ([]*entity.Note, error) {
	var notes []*entity.Note
	err := d.db.WithContext(ctx).
		Scopes(ownedBy(owner)).
		Order("notes.id").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// FindByID returns the note, or nil when it does not exist or is not owned by owner.
func (d *DefaultNoteRepository) FindByID(ctx context.Context, id int64, owner *int64) (*entity.Note, error) {
	var note entity.Note
	err := d.db.WithContext(ctx).
		Scopes(ownedBy(owner)).
		Where("notes.id = ?", id).
		First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &note, nil
}

// Create inserts note and its tag associations in one transaction.
func (d *DefaultNoteRepository) Create(ctx context.Context, note *entity.Note, tagIDs []int64) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(note).Error; err != nil {
			return translate(err)
		}
		return insertNoteTags(tx, note.ID, tagIDs)
	})
}

// Update overwrites title/content of note id and replaces its whole tag set.
// found is false when no note matched id (and owner).
func (d *DefaultNoteRepository) Update(ctx context.Context, note *entity.Note, owner *int64, tagIDs []int64) (found bool, err error) {
	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.Note{}).
			Scopes(ownedBy(owner)).
			Where("notes.id = ?", note.ID).
			Updates(map[string]any{
				"title":      note.Title,
				"content":    note.Content,
				"updated_at": note.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return nil
		}
		found = true

		if err := tx.Where("note_id = ?", note.ID).Delete(&entity.NoteTag{}).Error; err != nil {
			return err
		}
		return insertNoteTags(tx, note.ID, tagIDs)
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// Delete removes note id. Associations and attachment rows cascade.
func (d *DefaultNoteRepository) Delete(ctx context.Context, id int64, owner *int64) (found bool, err error) {
	res := d.db.WithContext(ctx).
		Scopes(ownedBy(owner)).
		Where("notes.id = ?", id).
		Delete(&entity.Note{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Search matches query as a substring of title or content (ASCII case-insensitive,
// SQLite LIKE semantics). A non-empty tag restricts to notes carrying that tag name.
func (d *DefaultNoteRepository) Search(ctx context.Context, query, tag string, owner *int64) ([]*entity.Note, error) {
	pattern := "%" + escapeLike(query) + "%"

	q := d.db.WithContext(ctx).
		Scopes(ownedBy(owner)).
		Where(`(notes.title LIKE ? ESCAPE '\' OR notes.content LIKE ? ESCAPE '\')`, pattern, pattern)

	if tag != "" {
		q = q.
			Joins("JOIN note_tags ON note_tags.note_id = notes.id").
			Joins("JOIN tags ON tags.id = note_tags.tag_id").
			Where("tags.name = ?", tag)
	}

	var notes []*entity.Note
	if err := q.Order("notes.id").Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

// FindTags loads the tags of every note in noteIDs, ordered by tag id.
func (d *DefaultNoteRepository) FindTags(ctx context.Context, noteIDs []int64) (map[int64][]entity.Tag, error) {
	result := make(map[int64][]entity.Tag, len(noteIDs))
	if len(noteIDs) == 0 {
		return result, nil
	}

	// Each chunk is ordered by tag id and covers whole notes, so per-note order holds.
	for start := 0; start < len(noteIDs); start += tagChunkSize {
		end := min(start+tagChunkSize, len(noteIDs))

		var rows []entity.TaggedRow
		err := d.db.WithContext(ctx).
			Table("note_tags").
			Select("note_tags.note_id AS note_id, tags.id AS tag_id, tags.name AS tag_name").
			Joins("JOIN tags ON tags.id = note_tags.tag_id").
			Where("note_tags.note_id IN ?", noteIDs[start:end]).
			Order("tags.id").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}

		for _, row := range rows {
			result[row.NoteID] = append(result[row.NoteID], entity.Tag{ID: row.TagID, Name: row.TagName})
		}
	}
	return result, nil
}

// insertNoteTags stores one association per tag id; duplicates are ignored.
func insertNoteTags(tx *gorm.DB, noteID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}

	rows := make([]entity.NoteTag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		rows = append(rows, entity.NoteTag{NoteID: noteID, TagID: tagID})
	}
	return translate(tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
