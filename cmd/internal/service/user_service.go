package service

import (
	"context"
	"errors"
	"linkednotes/cmd/internal/auth"
	"linkednotes/cmd/internal/contract"
	"linkednotes/cmd/internal/domain/entity"
	"linkednotes/cmd/internal/domain/sqlite/repository"
	"linkednotes/cmd/internal/utils"
	"linkednotes/cmd/internal/utils/apierror"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id int64) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
}

type UserService struct {
	UserRepo UserRepository
	Sessions auth.SessionStore
	Validate *validator.Validate
}

func NewUserService(userRepo UserRepository, sessions auth.SessionStore, validate *validator.Validate) *UserService {
	return &UserService{
		UserRepo: userRepo,
		Sessions: sessions,
		Validate: validate,
	}
}

// CreateUser registers a new account. The request is not sanitized: passwords are
// stored exactly as sent and usernames may not contain whitespace at all.
func (u *UserService) CreateUser(ctx context.Context, req *contract.CreateUserRequest) (*contract.UserResponse, apierror.ErrorResponse) {
	if valerr := u.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Errorf("failed to hash password: %v", err)
		return nil, apierror.InternalServerError
	}

	now := utils.NowUTC()
	user := &entity.User{
		Username:     req.Username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = u.UserRepo.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apierror.DuplicateUsernameError
	}

	if err != nil {
		log.Errorf("failed to create user %s: %v", req.Username, err)
		return nil, apierror.InternalServerError
	}

	log.Infof("registered user %d (%s)", user.ID, user.Username)
	return toUserResponse(user), nil
}

func (u *UserService) Login(ctx context.Context, req *contract.UserLoginRequest) (*contract.UserLoginResponse, apierror.ErrorResponse) {
	if valerr := u.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	user, err := u.UserRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		log.Errorf("failed to fetch user %s: %v", req.Username, err)
		return nil, apierror.InternalServerError
	}

	if user == nil {
		// Burn the same KDF time as a real check so unknown usernames are not observable.
		auth.VerifyPassword(req.Password, dummyHash())
		return nil, apierror.InvalidCredentialsError
	}

	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, apierror.InvalidCredentialsError
	}

	token, err := auth.NewToken()
	if err != nil {
		log.Errorf("failed to generate token: %v", err)
		return nil, apierror.InternalServerError
	}

	if err = u.Sessions.Save(ctx, token, user.ID); err != nil {
		log.Errorf("failed to store session for user %d: %v", user.ID, err)
		return nil, apierror.InternalServerError
	}

	return &contract.UserLoginResponse{
		Token:       token,
		AccessToken: token,
		TokenType:   "bearer",
	}, nil
}

// Authenticate resolves token to its user. Tokens never expire; they stay valid
// until logout or, for the memory store, a restart.
func (u *UserService) Authenticate(ctx context.Context, token string) (*entity.User, apierror.ErrorResponse) {
	if token == "" {
		return nil, apierror.InvalidAuthTokenError
	}

	userID, ok, err := u.Sessions.Lookup(ctx, token)
	if err != nil {
		log.Errorf("failed to look up session: %v", err)
		return nil, apierror.InternalServerError
	}

	if !ok {
		return nil, apierror.InvalidAuthTokenError
	}

	user, err := u.UserRepo.FindByID(ctx, userID)
	if err != nil {
		log.Errorf("failed to fetch user %d: %v", userID, err)
		return nil, apierror.InternalServerError
	}

	if user == nil {
		return nil, apierror.InvalidAuthTokenError
	}
	return user, nil
}

func (u *UserService) Logout(ctx context.Context, token string) apierror.ErrorResponse {
	if err := u.Sessions.Delete(ctx, token); err != nil {
		log.Errorf("failed to delete session: %v", err)
		return apierror.InternalServerError
	}
	return nil
}

func (u *UserService) Me(actor *entity.User) *contract.UserResponse {
	return toUserResponse(actor)
}

func toUserResponse(user *entity.User) *contract.UserResponse {
	return &contract.UserResponse{
		ID:       user.ID,
		Username: user.Username,
	}
}

var (
	dummyOnce sync.Once
	dummy     string
)

func dummyHash() string {
	dummyOnce.Do(func() {
		dummy, _ = auth.HashPassword("linkednotes-dummy-password")
	})
	return dummy
}
