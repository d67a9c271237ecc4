package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"linkednotes/cmd/internal/contract"
	"linkednotes/cmd/internal/domain/entity"
	"linkednotes/cmd/internal/domain/events"
	"linkednotes/cmd/internal/domain/sqlite"
	"linkednotes/cmd/internal/domain/sqlite/repository"
	"linkednotes/cmd/internal/utils"
	"linkednotes/cmd/internal/utils/apierror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu      sync.Mutex
	posted  map[string][]*contract.OutgoingSocketMessage
	deleted []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{posted: make(map[string][]*contract.OutgoingSocketMessage)}
}

func (f *fakeGateway) PostToConnection(_ context.Context, connID string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted[connID] = append(f.posted[connID], data.(*contract.OutgoingSocketMessage))
	return nil
}

func (f *fakeGateway) DeleteConnection(_ context.Context, connID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, connID)
	return nil
}

func (f *fakeGateway) messages(connID string) []*contract.OutgoingSocketMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*contract.OutgoingSocketMessage(nil), f.posted[connID]...)
}

func newWebSocketHarness(t *testing.T) (*WebSocketService, *fakeGateway, *repository.DefaultConnectionRepository) {
	t.Helper()

	db, err := sqlite.Init(filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close(db) })

	repo := repository.NewConnectionRepository(db)
	gateway := newFakeGateway()
	return NewWebSocketService(repo, gateway), gateway, repo
}

func TestWebSocketService_PublishTargets(t *testing.T) {
	ctx := context.Background()
	ws, gateway, _ := newWebSocketHarness(t)

	require.Nil(t, ws.RegisterConnection(ctx, 1, "alice-1"))
	require.Nil(t, ws.RegisterConnection(ctx, 2, "bob-1"))

	alice := int64(1)
	ws.Publish(ctx, &alice, &events.NoteDeleted{NoteID: 9})
	assert.Len(t, gateway.messages("alice-1"), 1)
	assert.Empty(t, gateway.messages("bob-1"))

	ws.Publish(ctx, nil, &events.NoteDeleted{NoteID: 10})
	assert.Len(t, gateway.messages("alice-1"), 2)
	require.Len(t, gateway.messages("bob-1"), 1)
	assert.Equal(t, contract.EventNoteDeleted, gateway.messages("bob-1")[0].Type)
}

func TestWebSocketService_Heartbeat(t *testing.T) {
	ctx := context.Background()
	ws, gateway, _ := newWebSocketHarness(t)

	assert.Equal(t, apierror.NotFoundError, ws.Heartbeat(ctx, "ghost"))
	assert.Equal(t, apierror.KindInvalidParam, ws.Heartbeat(ctx, "").Kind())

	require.Nil(t, ws.RegisterConnection(ctx, 1, "conn"))
	require.Nil(t, ws.Heartbeat(ctx, "conn"))

	assert.Eventually(t, func() bool {
		msgs := gateway.messages("conn")
		return len(msgs) == 1 && msgs[0].Type == contract.EventAck
	}, time.Second, time.Millisecond)
}

func TestWebSocketService_CleanupStale(t *testing.T) {
	ctx := context.Background()
	ws, gateway, repo := newWebSocketHarness(t)

	old := utils.NowUTC() - entity.HeartbeatPeriodMillis - entity.HeartbeatToleranceMillis - 1000
	require.NoError(t, repo.Save(ctx, &entity.Connection{ConnectionID: "stale", UserID: 1, LastHeartbeatAt: old, CreatedAt: old}))
	require.Nil(t, ws.RegisterConnection(ctx, 1, "fresh"))

	removed, err := ws.CleanupStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"stale"}, gateway.deleted)

	remaining, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, remaining)
}
