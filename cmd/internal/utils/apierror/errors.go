package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse abstracts all API error responses to the user.
//
// This interface does not implement `error`, since its only purpose
// is to be used for API responses and not for logging circumstances.
//
// In general, the whole ErrorResponse can be sent for serialization.
type ErrorResponse interface {
	// Code is the HTTP status code to be returned.
	Code() int

	// Kind is the machine-readable error identifier.
	Kind() string
}

type APIError struct {
	Error   string `json:"error"`
	Message string `json:"detail"`
	Status  int    `json:"-"`
}

func (a *APIError) Code() int {
	return a.Status
}

func (a *APIError) Kind() string {
	return a.Error
}

type StructuredError struct {
	Error   string              `json:"error"`
	Message string              `json:"detail"`
	Errors  map[string][]string `json:"fields"`
	Status  int                 `json:"-"`
}

func (s *StructuredError) Code() int {
	return s.Status
}

func (s *StructuredError) Kind() string {
	return s.Error
}

func (s *StructuredError) Add(field, problem string) {
	s.Errors[field] = append(s.Errors[field], problem)
}

const (
	KindDuplicateUsername  = "DUPLICATE_USERNAME"
	KindInvalidCredentials = "INVALID_CREDENTIALS"
	KindInvalidToken       = "INVALID_TOKEN"
	KindAuthRequired       = "AUTH_REQUIRED"
	KindDuplicateTag       = "DUPLICATE_TAG"
	KindUnknownTag         = "UNKNOWN_TAG"
	KindNotFound           = "NOT_FOUND"
	KindValidation         = "VALIDATION_ERROR"
	KindMalformedBody      = "MALFORMED_BODY"
	KindInvalidParam       = "INVALID_PARAM"
	KindPayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	KindFeatureDisabled    = "FEATURE_DISABLED"
	KindInternal           = "INTERNAL"
)

var (
	MalformedBodyError  = New(http.StatusBadRequest, KindMalformedBody, "Malformed request body")
	InternalServerError = New(http.StatusInternalServerError, KindInternal, "Internal server error")

	NotFoundError           = New(http.StatusNotFound, KindNotFound, "Resource not found")
	NoteNotFoundError       = New(http.StatusNotFound, KindNotFound, "Note not found")
	TagNotFoundError        = New(http.StatusNotFound, KindNotFound, "Tag not found")
	AttachmentNotFoundError = New(http.StatusNotFound, KindNotFound, "Attachment not found")
	FeatureDisabledError    = New(http.StatusNotFound, KindFeatureDisabled, "This feature is disabled")

	DuplicateTagError = New(http.StatusBadRequest, KindDuplicateTag, "Tag already exists")
	MissingFileError  = New(http.StatusBadRequest, KindValidation, "Multipart field 'file' is required")
	InvalidFileName   = New(http.StatusBadRequest, KindValidation, "Invalid file name")

	/*
	 * Used for authentications
	 */
	DuplicateUsernameError  = New(http.StatusBadRequest, KindDuplicateUsername, "Username taken")
	InvalidCredentialsError = New(http.StatusUnauthorized, KindInvalidCredentials, "Invalid credentials")
	InvalidAuthTokenError   = New(http.StatusUnauthorized, KindInvalidToken, "Invalid token")
	AuthRequiredError       = New(http.StatusUnauthorized, KindAuthRequired, "Authentication required")
)

func FromValidationError(err error) *StructuredError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}

	problems := NewStructured(http.StatusBadRequest)
	for _, fe := range ve {
		field := toSnakeCase(fe.Field())

		switch fe.Tag() {
		case "required":
			problems.Add(field, "This field is required")
		case "min":
			problems.Add(field, "Value is too short, min: "+fe.Param())
		case "max":
			problems.Add(field, "Value is too long, max: "+fe.Param())
		case "gt":
			problems.Add(field, "Value must be greater than "+fe.Param())
		case "nospaces":
			problems.Add(field, "Value must not contain whitespace")
		case "notblank":
			problems.Add(field, "Value must not be blank")

		default:
			problems.Add(field, "Invalid value provided")
		}
	}
	return problems
}

func New(status int, kind, msg string, args ...any) *APIError {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &APIError{Status: status, Error: kind, Message: msg}
}

func NewStructured(code int) *StructuredError {
	return &StructuredError{
		Error:   KindValidation,
		Message: "Request validation failed",
		Errors:  make(map[string][]string),
		Status:  code,
	}
}

func NewInvalidParamTypeError(name, dataType string) *APIError {
	return New(http.StatusBadRequest, KindInvalidParam, "Parameter '%s' has invalid type, expected: %s", name, dataType)
}

func NewMissingParamError(name string) *APIError {
	return New(http.StatusBadRequest, KindInvalidParam, "Parameter '%s' is required", name)
}

func NewUnknownTagsError(ids []int64) *APIError {
	return New(http.StatusBadRequest, KindUnknownTag, "Unknown tag ids: %v", ids)
}

func NewPayloadTooLargeError(max int64) *APIError {
	return New(http.StatusRequestEntityTooLarge, KindPayloadTooLarge, "File exceeds the maximum size of %d bytes", max)
}

// toSnakeCase turns struct field names like "TagIDs" into "tag_ids".
func toSnakeCase(s string) string {
	var b strings.Builder
	var prev rune
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
		prev = r
	}
	return b.String()
}
