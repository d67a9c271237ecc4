package service

import (
	"context"
	"errors"
	"io"
	"linkednotes/cmd/internal/contract"
	"linkednotes/cmd/internal/domain/entity"
	"linkednotes/cmd/internal/domain/policy"
	"linkednotes/cmd/internal/infrastructure/blob"
	"linkednotes/cmd/internal/utils"
	"linkednotes/cmd/internal/utils/apierror"
	"mime/multipart"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
)

// DefaultOrphanGrace is how old an unreferenced blob must be before the sweeper
// deletes it. Another instance may have written the blob without its row yet.
const DefaultOrphanGrace = 15 * time.Minute

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *entity.Attachment) error
	FindByFilename(ctx context.Context, filename string) (*entity.Attachment, error)
	FindByNoteID(ctx context.Context, noteID int64) ([]*entity.Attachment, error)
	FindAllFilenames(ctx context.Context) ([]string, error)
}

type NoteFinder interface {
	FindByID(ctx context.Context, id int64, owner *int64) (*entity.Note, error)
}

type AttachmentService struct {
	AttachRepo AttachmentRepository
	NoteRepo   NoteFinder
	Blobs      blob.Store
	Policy     *policy.NotePolicy
	MaxBytes   int64

	// OrphanGrace keeps young unreferenced blobs out of SweepOrphans.
	OrphanGrace time.Duration

	// Stored names whose blob may exist before their row does.
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewAttachmentService(
	attachRepo AttachmentRepository,
	noteRepo NoteFinder,
	blobs blob.Store,
	notePolicy *policy.NotePolicy,
	maxBytes int64,
) *AttachmentService {
	if maxBytes <= 0 {
		maxBytes = contract.DefaultMaxUploadBytes
	}

	return &AttachmentService{
		AttachRepo: attachRepo,
		NoteRepo:   noteRepo,
		Blobs:      blobs,
		Policy:     notePolicy,
		MaxBytes:   maxBytes,
		inFlight:   make(map[string]struct{}),

		OrphanGrace: DefaultOrphanGrace,
	}
}

// Upload stores the file under a random-prefixed name. When noteID is set the
// note must be visible to actor.
func (a *AttachmentService) Upload(ctx context.Context, actor *entity.User, fileHeader *multipart.FileHeader, noteID *int64) (*contract.UploadResponse, apierror.ErrorResponse) {
	if fileHeader == nil {
		return nil, apierror.MissingFileError
	}

	if fileHeader.Size > a.MaxBytes {
		return nil, apierror.NewPayloadTooLargeError(a.MaxBytes)
	}

	base, ok := SanitizeFilename(fileHeader.Filename)
	if !ok {
		return nil, apierror.InvalidFileName
	}

	if noteID != nil {
		note, err := a.NoteRepo.FindByID(ctx, *noteID, a.Policy.Scope(actor))
		if err != nil {
			log.Errorf("failed to fetch note %d: %v", *noteID, err)
			return nil, apierror.InternalServerError
		}

		if apierr := a.Policy.CanSee(note, actor); apierr != nil {
			return nil, apierr
		}
	}

	data, apierr := a.readFile(fileHeader)
	if apierr != nil {
		return nil, apierr
	}

	stored := strings.ReplaceAll(uuid.NewString(), "-", "") + "_" + base
	a.track(stored)
	defer a.untrack(stored)

	if err := a.Blobs.Put(ctx, stored, data); err != nil {
		log.Errorf("failed to store attachment blob %s: %v", stored, err)
		return nil, apierror.InternalServerError
	}

	attachment := &entity.Attachment{
		Filename:     stored,
		OriginalName: base,
		Size:         int64(len(data)),
		ContentType:  mimetype.Detect(data).String(),
		NoteID:       noteID,
		UserID:       a.Policy.Owner(actor),
		CreatedAt:    utils.NowUTC(),
	}

	if err := a.AttachRepo.Create(ctx, attachment); err != nil {
		log.Errorf("failed to save attachment %s: %v", stored, err)
		if delErr := a.Blobs.Delete(context.Background(), stored); delErr != nil {
			log.Warnf("failed to remove blob %s after failed insert: %v", stored, delErr)
		}
		return nil, apierror.InternalServerError
	}

	log.Debugf("stored attachment %s (%s)", stored, humanize.Bytes(uint64(attachment.Size)))
	return &contract.UploadResponse{Filename: stored}, nil
}

// Retrieve returns the bytes and sniffed content type of a stored attachment.
func (a *AttachmentService) Retrieve(ctx context.Context, actor *entity.User, filename string) ([]byte, string, apierror.ErrorResponse) {
	if !blob.ValidName(filename) {
		return nil, "", apierror.AttachmentNotFoundError
	}

	attachment, err := a.AttachRepo.FindByFilename(ctx, filename)
	if err != nil {
		log.Errorf("failed to fetch attachment %s: %v", filename, err)
		return nil, "", apierror.InternalServerError
	}

	if apierr := a.Policy.CanSeeAttachment(attachment, actor); apierr != nil {
		return nil, "", apierr
	}

	data, err := a.Blobs.Get(ctx, filename)
	if errors.Is(err, blob.ErrNotFound) {
		return nil, "", apierror.AttachmentNotFoundError
	}

	if err != nil {
		log.Errorf("failed to read attachment blob %s: %v", filename, err)
		return nil, "", apierror.InternalServerError
	}
	return data, mimetype.Detect(data).String(), nil
}

func (a *AttachmentService) GetNoteAttachments(ctx context.Context, actor *entity.User, noteID int64) ([]*contract.AttachmentResponse, apierror.ErrorResponse) {
	note, err := a.NoteRepo.FindByID(ctx, noteID, a.Policy.Scope(actor))
	if err != nil {
		log.Errorf("failed to fetch note %d: %v", noteID, err)
		return nil, apierror.InternalServerError
	}

	if apierr := a.Policy.CanSee(note, actor); apierr != nil {
		return nil, apierr
	}

	attachments, err := a.AttachRepo.FindByNoteID(ctx, noteID)
	if err != nil {
		log.Errorf("failed to fetch attachments of note %d: %v", noteID, err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.AttachmentResponse, len(attachments))
	for i, att := range attachments {
		resp[i] = toAttachmentResponse(att)
	}
	return resp, nil
}

// SweepOrphans deletes blobs that no attachment row references, which is what
// note deletion leaves behind. Uploads still in progress here, and blobs younger
// than OrphanGrace, are never touched.
func (a *AttachmentService) SweepOrphans(ctx context.Context) (int, error) {
	blobs, err := a.Blobs.List(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-a.OrphanGrace)

	// Snapshot in-flight uploads before reading rows: any upload finished after
	// this point already has its row.
	pending := a.pending()

	known, err := a.AttachRepo.FindAllFilenames(ctx)
	if err != nil {
		return 0, err
	}

	referenced := make(map[string]struct{}, len(known))
	for _, name := range known {
		referenced[name] = struct{}{}
	}

	removed := 0
	for _, b := range blobs {
		if _, ok := referenced[b.Name]; ok {
			continue
		}
		if _, ok := pending[b.Name]; ok {
			continue
		}
		if b.ModTime.After(cutoff) {
			continue
		}

		if err := a.Blobs.Delete(ctx, b.Name); err != nil {
			log.Warnf("failed to delete orphan blob %s: %v", b.Name, err)
			continue
		}
		removed++
	}
	return removed, nil
}

// SanitizeFilename reduces name to its last path element, accepting both
// slash styles. ok is false when nothing usable remains.
func SanitizeFilename(name string) (string, bool) {
	name = strings.ReplaceAll(strings.TrimSpace(name), `\`, "/")
	base := filepath.Base(name)
	if base == "" || base == "." || base == ".." || base == "/" || !blob.ValidName(base) {
		return "", false
	}
	return base, true
}

func (a *AttachmentService) readFile(fileHeader *multipart.FileHeader) ([]byte, apierror.ErrorResponse) {
	file, err := fileHeader.Open()
	if err != nil {
		log.Errorf("failed to open file: %v", err)
		return nil, apierror.InternalServerError
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, a.MaxBytes+1))
	if err != nil {
		log.Errorf("failed to read file: %v", err)
		return nil, apierror.InternalServerError
	}

	if int64(len(data)) > a.MaxBytes {
		return nil, apierror.NewPayloadTooLargeError(a.MaxBytes)
	}
	return data, nil
}

func (a *AttachmentService) track(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inFlight[name] = struct{}{}
}

func (a *AttachmentService) untrack(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.inFlight, name)
}

func (a *AttachmentService) pending() map[string]struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()

	snapshot := make(map[string]struct{}, len(a.inFlight))
	for name := range a.inFlight {
		snapshot[name] = struct{}{}
	}
	return snapshot
}

func toAttachmentResponse(att *entity.Attachment) *contract.AttachmentResponse {
	return &contract.AttachmentResponse{
		Filename:     att.Filename,
		OriginalName: att.OriginalName,
		Size:         att.Size,
		HumanSize:    humanize.Bytes(uint64(att.Size)),
		ContentType:  att.ContentType,
		NoteID:       att.NoteID,
		CreatedAt:    utils.FormatEpoch(att.CreatedAt),
	}
}
