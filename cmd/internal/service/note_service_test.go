package service

import (
	"context"
	"testing"
	"time"

	"linkednotes/cmd/internal/contract"
	"linkednotes/cmd/internal/utils/apierror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteService_CreateRoundTrip(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{})
	a := h.tag(t, "a")
	b := h.tag(t, "b")

	created := h.note(t, nil, "Hello", "see [[2]] and [[1]] then [[2]]", b, a, b)
	assert.Equal(t, []int64{a, b}, created.TagIDs)
	assert.Equal(t, []int64{2, 1, 2}, created.Links)

	got, apierr := h.notes.GetNote(ctx, nil, created.ID)
	require.Nil(t, apierr)
	assert.Equal(t, created.TagIDs, got.TagIDs)
	assert.Equal(t, []contract.TagResponse{{ID: a, Name: "a"}, {ID: b, Name: "b"}}, got.Tags)
	assert.Equal(t, "see [[2]] and [[1]] then [[2]]", got.Content)
	assert.Equal(t, []int64{2, 1, 2}, got.Links)
	assert.Nil(t, got.UserID)

	assert.Eventually(t, func() bool { return h.publisher.count() == 1 }, time.Second, time.Millisecond)
}

func TestNoteService_EmptyCollectionsAreNotNil(t *testing.T) {
	h := newHarness(t, harnessOpts{})

	created := h.note(t, nil, "plain", "")
	assert.NotNil(t, created.TagIDs)
	assert.NotNil(t, created.Tags)
	assert.NotNil(t, created.Links)
}

func TestNoteService_UnknownTagRejected(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{})
	a := h.tag(t, "a")

	_, apierr := h.notes.CreateNote(ctx, nil, &contract.NoteRequest{Title: "t", TagIDs: []int64{a, 404}})
	require.NotNil(t, apierr)
	assert.Equal(t, apierror.KindUnknownTag, apierr.Kind())

	notes, apierr := h.notes.GetNotes(ctx, nil)
	require.Nil(t, apierr)
	assert.Empty(t, notes)
}

func TestNoteService_Validation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{})

	_, apierr := h.notes.CreateNote(ctx, nil, &contract.NoteRequest{Title: "  "})
	require.NotNil(t, apierr)
	assert.Equal(t, apierror.KindValidation, apierr.Kind())

	_, apierr = h.notes.CreateNote(ctx, nil, &contract.NoteRequest{Title: "t", TagIDs: []int64{0}})
	require.NotNil(t, apierr)
	assert.Equal(t, apierror.KindValidation, apierr.Kind())
}

func TestNoteService_UpdateReplacesEverything(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{})
	a := h.tag(t, "a")
	b := h.tag(t, "b")
	created := h.note(t, nil, "old", "[[1]]", a)

	updated, apierr := h.notes.UpdateNote(ctx, nil, created.ID, &contract.NoteRequest{
		Title:   "new",
		Content: "now [[7]]",
		TagIDs:  []int64{b},
	})
	require.Nil(t, apierr)
	assert.Equal(t, "new", updated.Title)
	assert.Equal(t, []int64{b}, updated.TagIDs)
	assert.Equal(t, []int64{7}, updated.Links)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	// Omitting tag_ids clears the set.
	cleared, apierr := h.notes.UpdateNote(ctx, nil, created.ID, &contract.NoteRequest{Title: "new"})
	require.Nil(t, apierr)
	assert.Empty(t, cleared.TagIDs)
	assert.Empty(t, cleared.Links)

	_, apierr = h.notes.UpdateNote(ctx, nil, 999, &contract.NoteRequest{Title: "x"})
	assert.Equal(t, apierror.NoteNotFoundError, apierr)
}

func TestNoteService_Delete(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{})
	created := h.note(t, nil, "t", "c")

	require.Nil(t, h.notes.DeleteNote(ctx, nil, created.ID))
	assert.Equal(t, apierror.NoteNotFoundError, h.notes.DeleteNote(ctx, nil, created.ID))

	_, apierr := h.notes.GetNote(ctx, nil, created.ID)
	assert.Equal(t, apierror.NoteNotFoundError, apierr)
}

func TestNoteService_OwnershipIsolation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{enforceOwnership: true})
	alice := h.register(t, "alice")
	bob := h.register(t, "bob")

	secret := h.note(t, alice, "secret", "alice only")
	require.NotNil(t, secret.UserID)
	assert.Equal(t, alice.ID, *secret.UserID)

	_, apierr := h.notes.GetNote(ctx, bob, secret.ID)
	assert.Equal(t, apierror.NoteNotFoundError, apierr)

	_, apierr = h.notes.UpdateNote(ctx, bob, secret.ID, &contract.NoteRequest{Title: "pwned"})
	assert.Equal(t, apierror.NoteNotFoundError, apierr)

	assert.Equal(t, apierror.NoteNotFoundError, h.notes.DeleteNote(ctx, bob, secret.ID))

	list, apierr := h.notes.GetNotes(ctx, bob)
	require.Nil(t, apierr)
	assert.Empty(t, list)

	found, apierr := h.notes.Search(ctx, bob, "alice", "")
	require.Nil(t, apierr)
	assert.Empty(t, found)

	got, apierr := h.notes.GetNote(ctx, alice, secret.ID)
	require.Nil(t, apierr)
	assert.Equal(t, "secret", got.Title)
}

func TestNoteService_LinksDisabled(t *testing.T) {
	h := newHarness(t, harnessOpts{linksDisabled: true})

	created := h.note(t, nil, "t", "[[1]] [[2]]")
	assert.Equal(t, []int64{}, created.Links)
}

func TestNoteService_Search(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{})
	golang := h.tag(t, "go")

	first := h.note(t, nil, "Learning GO", "", golang)
	h.note(t, nil, "Cooking", "pasta")

	found, apierr := h.notes.Search(ctx, nil, "go", "")
	require.Nil(t, apierr)
	require.Len(t, found, 1)
	assert.Equal(t, first.ID, found[0].ID)
	assert.Equal(t, []int64{golang}, found[0].TagIDs)

	all, apierr := h.notes.Search(ctx, nil, "", "")
	require.Nil(t, apierr)
	assert.Len(t, all, 2)

	tagged, apierr := h.notes.Search(ctx, nil, "", "go")
	require.Nil(t, apierr)
	assert.Len(t, tagged, 1)
}

func TestNoteService_Graph(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{enforceOwnership: true})
	alice := h.register(t, "alice")
	bob := h.register(t, "bob")

	hidden := h.note(t, bob, "bob's", "")
	first := h.note(t, alice, "first", "")
	second := h.note(t, alice, "second", "")

	// Links are rewritten now that ids are known.
	content := "[[" + itoa(second.ID) + "]] [[" + itoa(second.ID) + "]] [[" + itoa(hidden.ID) + "]] [[" + itoa(first.ID) + "]]"
	_, apierr := h.notes.UpdateNote(ctx, alice, first.ID, &contract.NoteRequest{Title: "first", Content: content})
	require.Nil(t, apierr)

	graph, apierr := h.notes.Graph(ctx, alice)
	require.Nil(t, apierr)

	assert.Equal(t, []contract.GraphNode{{ID: first.ID, Title: "first"}, {ID: second.ID, Title: "second"}}, graph.Nodes)
	assert.Equal(t, []contract.GraphEdge{
		{Source: first.ID, Target: second.ID},
		{Source: first.ID, Target: first.ID},
	}, graph.Edges)
}

func TestDedupIDs(t *testing.T) {
	assert.Equal(t, []int64{3, 1, 2}, dedupIDs([]int64{3, 1, 3, 2, 1}))
	assert.Equal(t, []int64{}, dedupIDs(nil))
}
