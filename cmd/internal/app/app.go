// Package app wires configuration, stores, services and routes into a runnable server.
package app

import (
	"context"
	"fmt"
	"linkednotes/cmd/internal/auth"
	"linkednotes/cmd/internal/config"
	"linkednotes/cmd/internal/domain/policy"
	"linkednotes/cmd/internal/domain/sqlite/repository"
	"linkednotes/cmd/internal/http/handler"
	"linkednotes/cmd/internal/infrastructure/aws/storage"
	"linkednotes/cmd/internal/infrastructure/aws/websocket"
	"linkednotes/cmd/internal/infrastructure/blob"
	redisstore "linkednotes/cmd/internal/infrastructure/redis"
	"linkednotes/cmd/internal/routes"
	"linkednotes/cmd/internal/service"
	"linkednotes/cmd/internal/service/jobs"
	"linkednotes/cmd/internal/utils/validators"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"gorm.io/gorm"
)

// Job is a background loop that runs until its context is cancelled.
type Job interface {
	Start(ctx context.Context)
}

type App struct {
	Echo *echo.Echo
	Jobs []Job

	closers []func() error
}

// Overrides lets callers (tests mostly) swap infrastructure that would
// otherwise be built from the configuration.
type Overrides struct {
	Blobs   blob.Store
	Gateway websocket.GatewayClient
}

func New(ctx context.Context, cfg *config.Config, db *gorm.DB, ov *Overrides) (*App, error) {
	if ov == nil {
		ov = &Overrides{}
	}
	a := &App{}

	validate := validators.New()
	notePolicy := policy.NewNotePolicy(cfg.EnforceOwnership)

	// Gettings repos
	userRepo := repository.NewUserRepository(db)
	tagRepo := repository.NewTagRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	attachRepo := repository.NewAttachmentRepository(db)
	connRepo := repository.NewConnectionRepository(db)

	sessions, err := a.sessionStore(ctx, cfg, userRepo)
	if err != nil {
		return nil, err
	}

	// Realtime fan-out
	var publisher service.EventPublisher = service.NoopPublisher{}
	var wsRoutes *handler.DefaultWSRoute
	if cfg.RealtimeEnabled() {
		gateway := ov.Gateway
		if gateway == nil {
			if gateway, err = websocket.NewAWSGatewayClient(ctx, cfg.WSEndpoint, cfg.WSRegion); err != nil {
				return nil, fmt.Errorf("failed to init websocket gateway: %w", err)
			}
		}

		wsService := service.NewWebSocketService(connRepo, gateway)
		publisher = wsService
		wsRoutes = handler.NewWSDefault(wsService)
		a.Jobs = append(a.Jobs, jobs.NewConnectionCleaner(wsService))
	}

	// Getting services
	userService := service.NewUserService(userRepo, sessions, validate)
	tagService := service.NewTagService(tagRepo, validate)
	noteService := service.NewNoteService(noteRepo, tagRepo, notePolicy, publisher, validate, cfg.LinksEnabled)

	var attachmentRoutes *handler.DefaultAttachmentRoute
	if cfg.AttachmentsEnabled {
		blobs := ov.Blobs
		if blobs == nil {
			if blobs, err = newBlobStore(ctx, cfg); err != nil {
				return nil, err
			}
		}

		attachmentService := service.NewAttachmentService(attachRepo, noteRepo, blobs, notePolicy, cfg.MaxUploadBytes)
		attachmentService.OrphanGrace = cfg.OrphanGrace
		attachmentRoutes = handler.NewAttachmentDefault(attachmentService)
		a.Jobs = append(a.Jobs, jobs.NewAttachmentSweeper(attachmentService, cfg.SweepInterval))
	}

	a.Echo = routes.NewServer(routes.Options{
		RequireAuth:        cfg.RequireAuth,
		AttachmentsEnabled: cfg.AttachmentsEnabled,
		RealtimeEnabled:    cfg.RealtimeEnabled(),
		MaxUploadBytes:     cfg.MaxUploadBytes,
	}, &routes.Handlers{
		Auth:        userService,
		Users:       handler.NewUserDefault(userService),
		Tags:        handler.NewTagDefault(tagService),
		Notes:       handler.NewNoteDefault(noteService),
		Attachments: attachmentRoutes,
		WS:          wsRoutes,
	})
	return a, nil
}

// StartJobs launches every background job; they stop when ctx is cancelled.
func (a *App) StartJobs(ctx context.Context) {
	for _, job := range a.Jobs {
		go job.Start(ctx)
	}
}

// Close releases connections opened by New. The database is owned by the caller.
func (a *App) Close() error {
	var firstErr error
	for _, closer := range a.closers {
		if err := closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (a *App) sessionStore(ctx context.Context, cfg *config.Config, userRepo *repository.DefaultUserRepository) (auth.SessionStore, error) {
	switch cfg.SessionStore {
	case config.SessionStoreDB:
		return auth.NewDBSessionStore(userRepo), nil

	case config.SessionStoreRedis:
		client, err := redisstore.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		log.Infof("sessions are stored in redis at %s", cfg.RedisAddr)
		return redisstore.NewSessionStore(client, redisstore.DefaultKeyPrefix), nil

	default:
		return auth.NewMemorySessionStore(), nil
	}
}

func newBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	if cfg.AttachBackend == config.AttachBackendS3 {
		store, err := storage.NewS3Store(ctx, cfg.S3Region, cfg.S3Bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to init S3 client: %w", err)
		}
		return store, nil
	}
	return blob.NewDiskStore(cfg.AttachDir)
}
