package policy

import (
	"linkednotes/cmd/internal/domain/entity"
	"linkednotes/cmd/internal/utils/apierror"
)

// NotePolicy encapsulates the visibility rules for notes and their attachments.
// It returns apierror.ErrorResponse directly for seamless integration with handlers.
//
// Notes owned by someone else are reported as missing, never as forbidden.
type NotePolicy struct {
	enforceOwnership bool
}

func NewNotePolicy(enforceOwnership bool) *NotePolicy {
	return &NotePolicy{enforceOwnership: enforceOwnership}
}

// Scope returns the owner filter repositories must apply for actor,
// or nil when every note is visible.
func (p *NotePolicy) Scope(actor *entity.User) *int64 {
	if !p.enforceOwnership || actor == nil {
		return nil
	}
	id := actor.ID
	return &id
}

// Owner returns the user id stored on notes created by actor.
func (p *NotePolicy) Owner(actor *entity.User) *int64 {
	if actor == nil {
		return nil
	}
	id := actor.ID
	return &id
}

func (p *NotePolicy) CanSee(note *entity.Note, actor *entity.User) apierror.ErrorResponse {
	if note == nil || !note.OwnedBy(p.Scope(actor)) {
		return apierror.NoteNotFoundError
	}
	return nil
}

// CanSeeAttachment applies the note rules to the attachment's owner.
func (p *NotePolicy) CanSeeAttachment(att *entity.Attachment, actor *entity.User) apierror.ErrorResponse {
	if att == nil {
		return apierror.AttachmentNotFoundError
	}

	scope := p.Scope(actor)
	if scope != nil && (att.UserID == nil || *att.UserID != *scope) {
		return apierror.AttachmentNotFoundError
	}
	return nil
}
