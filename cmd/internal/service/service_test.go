package service

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"linkednotes/cmd/internal/auth"
	"linkednotes/cmd/internal/contract"
	"linkednotes/cmd/internal/domain/entity"
	"linkednotes/cmd/internal/domain/events"
	"linkednotes/cmd/internal/domain/policy"
	"linkednotes/cmd/internal/domain/sqlite"
	"linkednotes/cmd/internal/domain/sqlite/repository"
	"linkednotes/cmd/internal/infrastructure/blob"
	"linkednotes/cmd/internal/utils/validators"

	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.SocketEvent
}

func (r *recordingPublisher) Publish(_ context.Context, _ *int64, evt events.SocketEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type harness struct {
	users       *UserService
	tags        *TagService
	notes       *NoteService
	attachments *AttachmentService
	publisher   *recordingPublisher
	blobs       *blob.DiskStore
	userRepo    *repository.DefaultUserRepository
}

type harnessOpts struct {
	enforceOwnership bool
	linksDisabled    bool
	maxBytes         int64
}

func newHarness(t *testing.T, opts harnessOpts) *harness {
	t.Helper()

	dir := t.TempDir()
	db, err := sqlite.Init(filepath.Join(dir, "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close(db) })

	blobs, err := blob.NewDiskStore(filepath.Join(dir, "attachments"))
	require.NoError(t, err)

	validate := validators.New()
	notePolicy := policy.NewNotePolicy(opts.enforceOwnership)
	userRepo := repository.NewUserRepository(db)
	tagRepo := repository.NewTagRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	attachRepo := repository.NewAttachmentRepository(db)
	publisher := &recordingPublisher{}

	return &harness{
		users:       NewUserService(userRepo, auth.NewMemorySessionStore(), validate),
		tags:        NewTagService(tagRepo, validate),
		notes:       NewNoteService(noteRepo, tagRepo, notePolicy, publisher, validate, !opts.linksDisabled),
		attachments: NewAttachmentService(attachRepo, noteRepo, blobs, notePolicy, opts.maxBytes),
		publisher:   publisher,
		blobs:       blobs,
		userRepo:    userRepo,
	}
}

func (h *harness) register(t *testing.T, username string) *entity.User {
	t.Helper()

	resp, apierr := h.users.CreateUser(context.Background(), &contract.CreateUserRequest{
		Username: username,
		Password: "correct horse",
	})
	require.Nil(t, apierr)

	user, err := h.userRepo.FindByID(context.Background(), resp.ID)
	require.NoError(t, err)
	return user
}

func (h *harness) tag(t *testing.T, name string) int64 {
	t.Helper()

	resp, apierr := h.tags.CreateTag(context.Background(), &contract.TagRequest{Name: name})
	require.Nil(t, apierr)
	return resp.ID
}

func (h *harness) note(t *testing.T, actor *entity.User, title, content string, tagIDs ...int64) *contract.NoteResponse {
	t.Helper()

	resp, apierr := h.notes.CreateNote(context.Background(), actor, &contract.NoteRequest{
		Title:   title,
		Content: content,
		TagIDs:  tagIDs,
	})
	require.Nil(t, apierr)
	return resp
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
