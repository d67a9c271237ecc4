package handler

import (
	"context"
	"linkednotes/cmd/internal/contract"
	"linkednotes/cmd/internal/domain/entity"
	"linkednotes/cmd/internal/utils"
	"linkednotes/cmd/internal/utils/apierror"
	"net/http"

	"github.com/labstack/echo/v4"
)

// NoteService receives the caller as *entity.User, nil on anonymous routes,
// so visibility is decided without hitting the DB again.
type NoteService interface {
	GetNotes(ctx context.Context, actor *entity.User) ([]*contract.NoteResponse, apierror.ErrorResponse)
	GetNote(ctx context.Context, actor *entity.User, id int64) (*contract.NoteResponse, apierror.ErrorResponse)
	CreateNote(ctx context.Context, actor *entity.User, req *contract.NoteRequest) (*contract.NoteResponse, apierror.ErrorResponse)
	UpdateNote(ctx context.Context, actor *entity.User, id int64, req *contract.NoteRequest) (*contract.NoteResponse, apierror.ErrorResponse)
	DeleteNote(ctx context.Context, actor *entity.User, id int64) apierror.ErrorResponse
	Search(ctx context.Context, actor *entity.User, query, tag string) ([]*contract.NoteResponse, apierror.ErrorResponse)
	Graph(ctx context.Context, actor *entity.User) (*contract.GraphResponse, apierror.ErrorResponse)
}

type DefaultNoteRoute struct {
	NoteService NoteService
}

func NewNoteDefault(noteService NoteService) *DefaultNoteRoute {
	return &DefaultNoteRoute{NoteService: noteService}
}

func (n *DefaultNoteRoute) GetNotes(c echo.Context) error {
	notes, apierr := n.NoteService.GetNotes(c.Request().Context(), utils.GetOptionalUser(c))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, notes)
}

func (n *DefaultNoteRoute) GetNote(c echo.Context) error {
	id, perr := pathID(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	note, apierr := n.NoteService.GetNote(c.Request().Context(), utils.GetOptionalUser(c), id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, note)
}

func (n *DefaultNoteRoute) CreateNote(c echo.Context) error {
	var req contract.NoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	note, apierr := n.NoteService.CreateNote(c.Request().Context(), utils.GetOptionalUser(c), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, note)
}

func (n *DefaultNoteRoute) UpdateNote(c echo.Context) error {
	id, perr := pathID(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	var req contract.NoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	note, apierr := n.NoteService.UpdateNote(c.Request().Context(), utils.GetOptionalUser(c), id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, note)
}

func (n *DefaultNoteRoute) DeleteNote(c echo.Context) error {
	id, perr := pathID(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	if apierr := n.NoteService.DeleteNote(c.Request().Context(), utils.GetOptionalUser(c), id); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, &contract.DetailResponse{Detail: "Note deleted"})
}

func (n *DefaultNoteRoute) Search(c echo.Context) error {
	notes, apierr := n.NoteService.Search(
		c.Request().Context(),
		utils.GetOptionalUser(c),
		c.QueryParam("q"),
		c.QueryParam("tag"),
	)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, notes)
}

func (n *DefaultNoteRoute) GetGraph(c echo.Context) error {
	graph, apierr := n.NoteService.Graph(c.Request().Context(), utils.GetOptionalUser(c))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, graph)
}
