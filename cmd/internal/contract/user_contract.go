package contract

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=2,max=80,nospaces"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type UserLoginRequest struct {
	Username string `json:"username" validate:"required,max=80"`
	Password string `json:"password" validate:"required,max=128"`
}

type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// UserLoginResponse carries the same token twice: "token" for the plain
// clients and "access_token" for OAuth2 style clients.
type UserLoginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
