package handler

import (
	"context"
	"linkednotes/cmd/internal/contract"
	"linkednotes/cmd/internal/utils/apierror"
	"net/http"

	"github.com/labstack/echo/v4"
)

type TagService interface {
	CreateTag(ctx context.Context, req *contract.TagRequest) (*contract.TagResponse, apierror.ErrorResponse)
	GetTags(ctx context.Context) ([]*contract.TagResponse, apierror.ErrorResponse)
	GetTag(ctx context.Context, id int64) (*contract.TagResponse, apierror.ErrorResponse)
	UpdateTag(ctx context.Context, id int64, req *contract.TagRequest) (*contract.TagResponse, apierror.ErrorResponse)
	DeleteTag(ctx context.Context, id int64) apierror.ErrorResponse
}

type DefaultTagRoute struct {
	TagService TagService
}

func NewTagDefault(tagService TagService) *DefaultTagRoute {
	return &DefaultTagRoute{TagService: tagService}
}

func (t *DefaultTagRoute) GetTags(c echo.Context) error {
	tags, apierr := t.TagService.GetTags(c.Request().Context())
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, tags)
}

func (t *DefaultTagRoute) GetTag(c echo.Context) error {
	id, perr := pathID(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	tag, apierr := t.TagService.GetTag(c.Request().Context(), id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, tag)
}

func (t *DefaultTagRoute) CreateTag(c echo.Context) error {
	var req contract.TagRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	tag, apierr := t.TagService.CreateTag(c.Request().Context(), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, tag)
}

func (t *DefaultTagRoute) UpdateTag(c echo.Context) error {
	id, perr := pathID(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	var req contract.TagRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	tag, apierr := t.TagService.UpdateTag(c.Request().Context(), id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, tag)
}

func (t *DefaultTagRoute) DeleteTag(c echo.Context) error {
	id, perr := pathID(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	if apierr := t.TagService.DeleteTag(c.Request().Context(), id); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, &contract.DetailResponse{Detail: "Tag deleted"})
}
