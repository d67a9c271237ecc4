package service

import (
	"context"
	"errors"
	"linkednotes/cmd/internal/contract"
	"linkednotes/cmd/internal/domain/entity"
	"linkednotes/cmd/internal/domain/sqlite/repository"
	"linkednotes/cmd/internal/utils"
	"linkednotes/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

type TagRepository interface {
	Create(ctx context.Context, tag *entity.Tag) error
	FindAll(ctx context.Context) ([]*entity.Tag, error)
	FindByID(ctx context.Context, id int64) (*entity.Tag, error)
	Rename(ctx context.Context, id int64, name string) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	FindMissingIDs(ctx context.Context, ids []int64) ([]int64, error)
}

type TagService struct {
	TagRepo  TagRepository
	Validate *validator.Validate
}

func NewTagService(tagRepo TagRepository, validate *validator.Validate) *TagService {
	return &TagService{
		TagRepo:  tagRepo,
		Validate: validate,
	}
}

func (t *TagService) CreateTag(ctx context.Context, req *contract.TagRequest) (*contract.TagResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := t.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	tag := &entity.Tag{Name: req.Name}
	err := t.TagRepo.Create(ctx, tag)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apierror.DuplicateTagError
	}

	if err != nil {
		log.Errorf("failed to create tag: %v", err)
		return nil, apierror.InternalServerError
	}
	return toTagResponse(tag), nil
}

func (t *TagService) GetTags(ctx context.Context) ([]*contract.TagResponse, apierror.ErrorResponse) {
	tags, err := t.TagRepo.FindAll(ctx)
	if err != nil {
		log.Errorf("failed to fetch tags: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.TagResponse, len(tags))
	for i, tag := range tags {
		resp[i] = toTagResponse(tag)
	}
	return resp, nil
}

func (t *TagService) GetTag(ctx context.Context, id int64) (*contract.TagResponse, apierror.ErrorResponse) {
	tag, err := t.TagRepo.FindByID(ctx, id)
	if err != nil {
		log.Errorf("failed to fetch tag %d: %v", id, err)
		return nil, apierror.InternalServerError
	}

	if tag == nil {
		return nil, apierror.TagNotFoundError
	}
	return toTagResponse(tag), nil
}

func (t *TagService) UpdateTag(ctx context.Context, id int64, req *contract.TagRequest) (*contract.TagResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := t.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	found, err := t.TagRepo.Rename(ctx, id, req.Name)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apierror.DuplicateTagError
	}

	if err != nil {
		log.Errorf("failed to rename tag %d: %v", id, err)
		return nil, apierror.InternalServerError
	}

	if !found {
		return nil, apierror.TagNotFoundError
	}
	return &contract.TagResponse{ID: id, Name: req.Name}, nil
}

func (t *TagService) DeleteTag(ctx context.Context, id int64) apierror.ErrorResponse {
	found, err := t.TagRepo.Delete(ctx, id)
	if err != nil {
		log.Errorf("failed to delete tag %d: %v", id, err)
		return apierror.InternalServerError
	}

	if !found {
		return apierror.TagNotFoundError
	}
	return nil
}

func toTagResponse(tag *entity.Tag) *contract.TagResponse {
	return &contract.TagResponse{ID: tag.ID, Name: tag.Name}
}
