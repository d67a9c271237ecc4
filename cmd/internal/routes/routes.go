package routes

import (
	"errors"
	"fmt"
	"linkednotes/cmd/internal/http/handler"
	authmw "linkednotes/cmd/internal/http/middleware"
	"linkednotes/cmd/internal/utils/apierror"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

// multipartOverhead is the slack allowed on top of the upload limit for
// multipart boundaries and form fields.
const multipartOverhead = 1 << 20

type Options struct {
	RequireAuth        bool
	AttachmentsEnabled bool
	RealtimeEnabled    bool
	MaxUploadBytes     int64
}

// Handlers bundles the route handlers. Attachments and WS may be nil when
// their feature is disabled.
type Handlers struct {
	Auth        authmw.Authenticator
	Users       *handler.DefaultUserRoute
	Tags        *handler.DefaultTagRoute
	Notes       *handler.DefaultNoteRoute
	Attachments *handler.DefaultAttachmentRoute
	WS          *handler.DefaultWSRoute
}

// NewServer builds the echo instance with the middleware stack and every route.
func NewServer(opts Options, h *Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(requestLogger())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dB", opts.MaxUploadBytes+multipartOverhead)))

	requireAuth := authmw.NewAuthMiddleware(&authmw.AuthMiddlewareConfig{Auth: h.Auth})
	dataAuth := requireAuth
	if !opts.RequireAuth {
		dataAuth = authmw.NewAuthMiddleware(&authmw.AuthMiddlewareConfig{Auth: h.Auth, Optional: true})
	}

	// Docker Compose healthcheck
	e.GET("/health", handler.HealthCheck)

	// Users
	e.POST("/users/register", h.Users.CreateUser)
	e.POST("/users/login", h.Users.CreateLogin)
	e.POST("/users/logout", h.Users.Logout, requireAuth)
	e.GET("/users/me", h.Users.GetSelf, requireAuth)

	// Tags
	tags := e.Group("/tags", dataAuth)
	tags.GET("", h.Tags.GetTags)
	tags.POST("", h.Tags.CreateTag)
	tags.GET("/:id", h.Tags.GetTag)
	tags.PUT("/:id", h.Tags.UpdateTag)
	tags.DELETE("/:id", h.Tags.DeleteTag)

	// Notes
	notes := e.Group("/notes", dataAuth)
	notes.GET("", h.Notes.GetNotes)
	notes.POST("", h.Notes.CreateNote)
	notes.GET("/graph", h.Notes.GetGraph)
	notes.GET("/:id", h.Notes.GetNote)
	notes.PUT("/:id", h.Notes.UpdateNote)
	notes.DELETE("/:id", h.Notes.DeleteNote)
	e.GET("/search", h.Notes.Search, dataAuth)

	// Attachments
	attachments := e.Group("/attachments", dataAuth)
	if opts.AttachmentsEnabled && h.Attachments != nil {
		notes.GET("/:id/attachments", h.Attachments.GetNoteAttachments)
		attachments.POST("/upload", h.Attachments.Upload)
		attachments.GET("/:filename", h.Attachments.Download)
	} else {
		notes.GET("/:id/attachments", handler.FeatureDisabled)
		attachments.Any("/*", handler.FeatureDisabled)
	}

	// Realtime
	ws := e.Group("/ws", requireAuth)
	if opts.RealtimeEnabled && h.WS != nil {
		ws.POST("/connect", h.WS.HandleConnect)
		ws.POST("/disconnect", h.WS.HandleDisconnect)
		ws.POST("/ping", h.WS.HandlePing)
	} else {
		ws.Any("/*", handler.FeatureDisabled)
	}

	return e
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				log.Warnf("%s %s -> %d (%s): %v", v.Method, v.URI, v.Status, v.Latency.Round(time.Microsecond), v.Error)
				return nil
			}
			log.Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency.Round(time.Microsecond))
			return nil
		},
	})
}

// errorHandler renders errors raised outside the handlers (routing misses,
// body limit, panics) with the same JSON shape as service errors.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apierr apierror.ErrorResponse
	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound:
			apierr = apierror.NotFoundError
		case http.StatusMethodNotAllowed:
			apierr = apierror.New(http.StatusMethodNotAllowed, apierror.KindNotFound, "Method not allowed")
		case http.StatusRequestEntityTooLarge:
			apierr = apierror.New(http.StatusRequestEntityTooLarge, apierror.KindPayloadTooLarge, "Request body too large")
		case http.StatusBadRequest, http.StatusUnsupportedMediaType:
			apierr = apierror.MalformedBodyError
		}
	}

	if apierr == nil {
		log.Errorf("unhandled error on %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
		apierr = apierror.InternalServerError
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(apierr.Code())
		return
	}
	_ = c.JSON(apierr.Code(), apierr)
}
