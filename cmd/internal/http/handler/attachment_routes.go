package handler

import (
	"context"
	"linkednotes/cmd/internal/contract"
	"linkednotes/cmd/internal/domain/entity"
	"linkednotes/cmd/internal/utils"
	"linkednotes/cmd/internal/utils/apierror"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

type AttachmentService interface {
	Upload(ctx context.Context, actor *entity.User, fileHeader *multipart.FileHeader, noteID *int64) (*contract.UploadResponse, apierror.ErrorResponse)
	Retrieve(ctx context.Context, actor *entity.User, filename string) ([]byte, string, apierror.ErrorResponse)
	GetNoteAttachments(ctx context.Context, actor *entity.User, noteID int64) ([]*contract.AttachmentResponse, apierror.ErrorResponse)
}

type DefaultAttachmentRoute struct {
	AttachmentService AttachmentService
}

func NewAttachmentDefault(attachmentService AttachmentService) *DefaultAttachmentRoute {
	return &DefaultAttachmentRoute{AttachmentService: attachmentService}
}

func (a *DefaultAttachmentRoute) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(apierror.MissingFileError.Code(), apierror.MissingFileError)
	}

	var noteID *int64
	if raw := strings.TrimSpace(c.FormValue("note_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			apierr := apierror.NewInvalidParamTypeError("note_id", "positive integer")
			return c.JSON(apierr.Code(), apierr)
		}
		noteID = &id
	}

	resp, apierr := a.AttachmentService.Upload(c.Request().Context(), utils.GetOptionalUser(c), fileHeader, noteID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *DefaultAttachmentRoute) Download(c echo.Context) error {
	data, contentType, apierr := a.AttachmentService.Retrieve(c.Request().Context(), utils.GetOptionalUser(c), c.Param("filename"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.Blob(http.StatusOK, contentType, data)
}

func (a *DefaultAttachmentRoute) GetNoteAttachments(c echo.Context) error {
	id, perr := pathID(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	resp, apierr := a.AttachmentService.GetNoteAttachments(c.Request().Context(), utils.GetOptionalUser(c), id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

// FeatureDisabled answers every route of a feature switched off by configuration.
func FeatureDisabled(c echo.Context) error {
	return c.JSON(apierror.FeatureDisabledError.Code(), apierror.FeatureDisabledError)
}
