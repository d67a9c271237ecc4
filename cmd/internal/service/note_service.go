package service

import (
	"context"
	"errors"
	"linkednotes/cmd/internal/contract"
	"linkednotes/cmd/internal/domain/entity"
	"linkednotes/cmd/internal/domain/events"
	"linkednotes/cmd/internal/domain/links"
	"linkednotes/cmd/internal/domain/policy"
	"linkednotes/cmd/internal/domain/sqlite/repository"
	"linkednotes/cmd/internal/utils"
	"linkednotes/cmd/internal/utils/apierror"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

type NoteRepository interface {
	FindAll(ctx context.Context, owner *int64) ([]*entity.Note, error)
	FindByID(ctx context.Context, id int64, owner *int64) (*entity.Note, error)
	Create(ctx context.Context, note *entity.Note, tagIDs []int64) error
	Update(ctx context.Context, note *entity.Note, owner *int64, tagIDs []int64) (bool, error)
	Delete(ctx context.Context, id int64, owner *int64) (bool, error)
	Search(ctx context.Context, query, tag string, owner *int64) ([]*entity.Note, error)
	FindTags(ctx context.Context, noteIDs []int64) (map[int64][]entity.Tag, error)
}

type TagLookup interface {
	FindMissingIDs(ctx context.Context, ids []int64) ([]int64, error)
}

type NoteService struct {
	NoteRepo     NoteRepository
	TagRepo      TagLookup
	Policy       *policy.NotePolicy
	Events       EventPublisher
	Validate     *validator.Validate
	LinksEnabled bool
}

func NewNoteService(
	noteRepo NoteRepository,
	tagRepo TagLookup,
	notePolicy *policy.NotePolicy,
	publisher EventPublisher,
	validate *validator.Validate,
	linksEnabled bool,
) *NoteService {
	if publisher == nil {
		publisher = NoopPublisher{}
	}

	return &NoteService{
		NoteRepo:     noteRepo,
		TagRepo:      tagRepo,
		Policy:       notePolicy,
		Events:       publisher,
		Validate:     validate,
		LinksEnabled: linksEnabled,
	}
}

func (n *NoteService) GetNotes(ctx context.Context, actor *entity.User) ([]*contract.NoteResponse, apierror.ErrorResponse) {
	notes, err := n.NoteRepo.FindAll(ctx, n.Policy.Scope(actor))
	if err != nil {
		log.Errorf("failed to fetch notes: %v", err)
		return nil, apierror.InternalServerError
	}
	return n.assembleOrFail(ctx, notes)
}

func (n *NoteService) GetNote(ctx context.Context, actor *entity.User, id int64) (*contract.NoteResponse, apierror.ErrorResponse) {
	note, err := n.NoteRepo.FindByID(ctx, id, n.Policy.Scope(actor))
	if err != nil {
		log.Errorf("failed to fetch note %d: %v", id, err)
		return nil, apierror.InternalServerError
	}

	if apierr := n.Policy.CanSee(note, actor); apierr != nil {
		return nil, apierr
	}
	return n.assembleOne(ctx, note)
}

func (n *NoteService) CreateNote(ctx context.Context, actor *entity.User, req *contract.NoteRequest) (*contract.NoteResponse, apierror.ErrorResponse) {
	tagIDs, apierr := n.checkRequest(ctx, req)
	if apierr != nil {
		return nil, apierr
	}

	now := utils.NowUTC()
	note := &entity.Note{
		UserID:    n.Policy.Owner(actor),
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := n.NoteRepo.Create(ctx, note, tagIDs)
	if errors.Is(err, repository.ErrForeignKey) {
		// A tag vanished between the existence check and the insert.
		return nil, apierror.NewUnknownTagsError(tagIDs)
	}

	if err != nil {
		log.Errorf("failed to create note: %v", err)
		return nil, apierror.InternalServerError
	}

	resp, apierr := n.assembleOne(ctx, note)
	if apierr != nil {
		return nil, apierr
	}

	go n.Events.Publish(context.Background(), n.Policy.Scope(actor), &events.NoteCreated{NoteResponse: resp})
	return resp, nil
}

// UpdateNote replaces title, content and the whole tag set of note id.
func (n *NoteService) UpdateNote(ctx context.Context, actor *entity.User, id int64, req *contract.NoteRequest) (*contract.NoteResponse, apierror.ErrorResponse) {
	tagIDs, apierr := n.checkRequest(ctx, req)
	if apierr != nil {
		return nil, apierr
	}

	scope := n.Policy.Scope(actor)
	note := &entity.Note{
		ID:        id,
		Title:     req.Title,
		Content:   req.Content,
		UpdatedAt: utils.NowUTC(),
	}

	found, err := n.NoteRepo.Update(ctx, note, scope, tagIDs)
	if errors.Is(err, repository.ErrForeignKey) {
		return nil, apierror.NewUnknownTagsError(tagIDs)
	}

	if err != nil {
		log.Errorf("failed to update note %d: %v", id, err)
		return nil, apierror.InternalServerError
	}

	if !found {
		return nil, apierror.NoteNotFoundError
	}

	// Re-read so the response carries the stored owner and creation time.
	stored, err := n.NoteRepo.FindByID(ctx, id, scope)
	if err != nil {
		log.Errorf("failed to fetch note %d: %v", id, err)
		return nil, apierror.InternalServerError
	}

	if stored == nil {
		// Deleted concurrently right after the update.
		return nil, apierror.NoteNotFoundError
	}

	resp, apierr := n.assembleOne(ctx, stored)
	if apierr != nil {
		return nil, apierr
	}

	go n.Events.Publish(context.Background(), scope, &events.NoteUpdated{NoteResponse: resp})
	return resp, nil
}

func (n *NoteService) DeleteNote(ctx context.Context, actor *entity.User, id int64) apierror.ErrorResponse {
	scope := n.Policy.Scope(actor)
	found, err := n.NoteRepo.Delete(ctx, id, scope)
	if err != nil {
		log.Errorf("failed to delete note %d: %v", id, err)
		return apierror.InternalServerError
	}

	if !found {
		return apierror.NoteNotFoundError
	}

	go n.Events.Publish(context.Background(), scope, &events.NoteDeleted{NoteID: id})
	return nil
}

// Search returns notes whose title or content contains query, optionally
// restricted to notes carrying the tag named tag.
func (n *NoteService) Search(ctx context.Context, actor *entity.User, query, tag string) ([]*contract.NoteResponse, apierror.ErrorResponse) {
	notes, err := n.NoteRepo.Search(ctx, query, tag, n.Policy.Scope(actor))
	if err != nil {
		log.Errorf("failed to search notes: %v", err)
		return nil, apierror.InternalServerError
	}
	return n.assembleOrFail(ctx, notes)
}

// Graph returns every visible note as a node and one edge per distinct
// (source, target) link between visible notes.
func (n *NoteService) Graph(ctx context.Context, actor *entity.User) (*contract.GraphResponse, apierror.ErrorResponse) {
	notes, err := n.NoteRepo.FindAll(ctx, n.Policy.Scope(actor))
	if err != nil {
		log.Errorf("failed to fetch notes for graph: %v", err)
		return nil, apierror.InternalServerError
	}

	visible := make(map[int64]struct{}, len(notes))
	graph := &contract.GraphResponse{
		Nodes: make([]contract.GraphNode, 0, len(notes)),
		Edges: []contract.GraphEdge{},
	}
	for _, note := range notes {
		visible[note.ID] = struct{}{}
		graph.Nodes = append(graph.Nodes, contract.GraphNode{ID: note.ID, Title: note.Title})
	}

	if !n.LinksEnabled {
		return graph, nil
	}

	seen := make(map[contract.GraphEdge]struct{})
	for _, note := range notes {
		for _, target := range links.Extract(note.Content) {
			if _, ok := visible[target]; !ok {
				continue
			}

			edge := contract.GraphEdge{Source: note.ID, Target: target}
			if _, dup := seen[edge]; dup {
				continue
			}
			seen[edge] = struct{}{}
			graph.Edges = append(graph.Edges, edge)
		}
	}
	return graph, nil
}

// Assemble joins tags onto notes with one batched query and derives links
// from the current content. Output order follows notes.
func (n *NoteService) Assemble(ctx context.Context, notes []*entity.Note) ([]*contract.NoteResponse, error) {
	ids := make([]int64, len(notes))
	for i, note := range notes {
		ids[i] = note.ID
	}

	tagsByNote, err := n.NoteRepo.FindTags(ctx, ids)
	if err != nil {
		return nil, err
	}

	resp := make([]*contract.NoteResponse, len(notes))
	for i, note := range notes {
		resp[i] = n.toNoteResponse(note, tagsByNote[note.ID])
	}
	return resp, nil
}

func (n *NoteService) assembleOrFail(ctx context.Context, notes []*entity.Note) ([]*contract.NoteResponse, apierror.ErrorResponse) {
	resp, err := n.Assemble(ctx, notes)
	if err != nil {
		log.Errorf("failed to assemble notes: %v", err)
		return nil, apierror.InternalServerError
	}
	return resp, nil
}

func (n *NoteService) assembleOne(ctx context.Context, note *entity.Note) (*contract.NoteResponse, apierror.ErrorResponse) {
	resp, apierr := n.assembleOrFail(ctx, []*entity.Note{note})
	if apierr != nil {
		return nil, apierr
	}
	return resp[0], nil
}

// checkRequest validates req and returns its de-duplicated tag ids, rejecting
// ids that name no existing tag before anything is written.
func (n *NoteService) checkRequest(ctx context.Context, req *contract.NoteRequest) ([]int64, apierror.ErrorResponse) {
	// Content is stored verbatim, only the title is trimmed.
	req.Title = strings.TrimSpace(req.Title)
	if valerr := n.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	tagIDs := dedupIDs(req.TagIDs)
	missing, err := n.TagRepo.FindMissingIDs(ctx, tagIDs)
	if err != nil {
		log.Errorf("failed to check tag ids: %v", err)
		return nil, apierror.InternalServerError
	}

	if len(missing) > 0 {
		return nil, apierror.NewUnknownTagsError(missing)
	}
	return tagIDs, nil
}

func (n *NoteService) toNoteResponse(note *entity.Note, tags []entity.Tag) *contract.NoteResponse {
	tagIDs := make([]int64, len(tags))
	tagResp := make([]contract.TagResponse, len(tags))
	for i, tag := range tags {
		tagIDs[i] = tag.ID
		tagResp[i] = contract.TagResponse{ID: tag.ID, Name: tag.Name}
	}

	noteLinks := []int64{}
	if n.LinksEnabled {
		noteLinks = links.Extract(note.Content)
	}

	return &contract.NoteResponse{
		ID:        note.ID,
		UserID:    note.UserID,
		Title:     note.Title,
		Content:   note.Content,
		TagIDs:    tagIDs,
		Tags:      tagResp,
		Links:     noteLinks,
		CreatedAt: utils.FormatEpoch(note.CreatedAt),
		UpdatedAt: utils.FormatEpoch(note.UpdatedAt),
	}
}

func dedupIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
