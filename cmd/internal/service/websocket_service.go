package service

import (
	"context"
	"linkednotes/cmd/internal/domain/entity"
	"linkednotes/cmd/internal/domain/events"
	"linkednotes/cmd/internal/infrastructure/aws/websocket"
	"linkednotes/cmd/internal/utils"
	"linkednotes/cmd/internal/utils/apierror"

	"github.com/labstack/gommon/log"
)

type ConnectionRepository interface {
	Save(ctx context.Context, conn *entity.Connection) error
	Delete(ctx context.Context, connID string) error
	FindByUserID(ctx context.Context, userID int64) ([]string, error)
	FindAll(ctx context.Context) ([]string, error)
	FindStale(ctx context.Context, before int64) ([]*entity.Connection, error)
	UpdateHeartbeat(ctx context.Context, connID string, now int64) (bool, error)
}

// EventPublisher delivers note events. A nil target reaches every connection,
// otherwise only the connections of that user.
type EventPublisher interface {
	Publish(ctx context.Context, target *int64, evt events.SocketEvent)
}

// NoopPublisher drops every event. Used while realtime fan-out is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *int64, events.SocketEvent) {}

type WebSocketService struct {
	ConnRepo ConnectionRepository
	Gateway  websocket.GatewayClient
}

func NewWebSocketService(repo ConnectionRepository, gateway websocket.GatewayClient) *WebSocketService {
	return &WebSocketService{
		ConnRepo: repo,
		Gateway:  gateway,
	}
}

func (s *WebSocketService) RegisterConnection(ctx context.Context, userID int64, connectionID string) apierror.ErrorResponse {
	if connectionID == "" {
		return apierror.NewMissingParamError(websocket.HeaderConnectionID)
	}

	now := utils.NowUTC()
	conn := &entity.Connection{
		ConnectionID:    connectionID,
		UserID:          userID,
		LastHeartbeatAt: now, // Avoid users getting disconnected immediately
		CreatedAt:       now,
	}

	if err := s.ConnRepo.Save(ctx, conn); err != nil {
		log.Errorf("failed to save connection: %v", err)
		return apierror.InternalServerError
	}
	return nil
}

func (s *WebSocketService) RemoveConnection(ctx context.Context, connectionID string) {
	// We don't return error here because if it fails, it's not the client's fault
	_ = s.ConnRepo.Delete(ctx, connectionID)
}

// Heartbeat refreshes connID and acknowledges it back through the gateway.
func (s *WebSocketService) Heartbeat(ctx context.Context, connID string) apierror.ErrorResponse {
	if connID == "" {
		return apierror.NewMissingParamError(websocket.HeaderConnectionID)
	}

	found, err := s.ConnRepo.UpdateHeartbeat(ctx, connID, utils.NowUTC())
	if err != nil {
		log.Errorf("failed to update heartbeat: %v", err)
		return apierror.InternalServerError
	}

	if !found {
		return apierror.NotFoundError
	}

	go func(conn string) {
		err := s.Gateway.PostToConnection(context.Background(), conn, events.Envelope(&events.Ack{}))
		if err != nil {
			log.Errorf("failed to post ack to conn %s: %v", conn, err)
		}
	}(connID)
	return nil
}

func (s *WebSocketService) Publish(ctx context.Context, target *int64, evt events.SocketEvent) {
	var (
		conns []string
		err   error
	)
	if target == nil {
		conns, err = s.ConnRepo.FindAll(ctx)
	} else {
		conns, err = s.ConnRepo.FindByUserID(ctx, *target)
	}

	if err != nil {
		log.Errorf("failed to fetch connections for %s event: %v", evt.GetType(), err)
		return
	}

	envelope := events.Envelope(evt)
	for _, connID := range conns {
		// We ignore errors here so one stale connection doesn't block others
		if err := s.Gateway.PostToConnection(ctx, connID, envelope); websocket.IsGone(err) {
			s.RemoveConnection(ctx, connID)
		}
	}
}

// CleanupStale drops connections that missed their heartbeat window and
// returns how many were removed.
func (s *WebSocketService) CleanupStale(ctx context.Context) (int, error) {
	cutoff := utils.NowUTC() - entity.HeartbeatPeriodMillis - entity.HeartbeatToleranceMillis
	conns, err := s.ConnRepo.FindStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	for _, conn := range conns {
		// Tell AWS we are dropping the connection
		_ = s.Gateway.DeleteConnection(ctx, conn.ConnectionID)
		s.RemoveConnection(ctx, conn.ConnectionID)
	}
	return len(conns), nil
}
