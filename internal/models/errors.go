package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Error codes surfaced to clients in ErrorResponse.Code.
const (
	CodeValidation               = "VALIDATION_ERROR"
	CodeSelfRequest              = "SELF_REQUEST"
	CodeNotFound                 = "NOT_FOUND"
	CodeForbidden                = "FORBIDDEN"
	CodeNotMember                = "NOT_MEMBER"
	CodeUnauthorized             = "UNAUTHORIZED"
	CodeTokenMissing             = "TOKEN_MISSING"
	CodeTokenInvalid             = "TOKEN_INVALID"
	CodeDuplicateRequestSent     = "DUPLICATE_REQUEST_SENT"
	CodeDuplicateRequestReceived = "DUPLICATE_REQUEST_RECEIVED"
	CodeAlreadyFriends           = "ALREADY_FRIENDS"
	CodeDuplicateRoom            = "DUPLICATE_ROOM"
	CodeAlreadyMember            = "ALREADY_MEMBER"
	CodeUsernameTaken            = "USERNAME_TAKEN"
	CodeInternal                 = "INTERNAL_ERROR"
)

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

// NewNotFoundMessage is NewNotFoundError for lookups that are not keyed by ID.
func NewNotFoundMessage(message string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: message,
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewSelfRequestError() *AppError {
	return &AppError{
		Code:    CodeSelfRequest,
		Message: "Cannot send friend request to yourself",
	}
}

// NewUnauthorizedError is a failed credential check (bad login, wrong current password).
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// NewForbiddenError is an authenticated caller acting outside their permissions.
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewNotMemberError(roomID uint) *AppError {
	return &AppError{
		Code:    CodeNotMember,
		Message: fmt.Sprintf("User is not a member of message room %d", roomID),
	}
}

// NewUnauthenticatedError distinguishes an absent credential from a rejected one.
func NewUnauthenticatedError(missing bool) *AppError {
	if missing {
		return &AppError{Code: CodeTokenMissing, Message: "Authorization required"}
	}
	return &AppError{Code: CodeTokenInvalid, Message: "Invalid or expired token"}
}

func NewConflictError(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// StatusFor maps an error to the HTTP status it is reported with.
// Not-found is a 400 on this API, as the mobile client has always expected.
func StatusFor(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeValidation, CodeSelfRequest, CodeNotFound:
		return fiber.StatusBadRequest
	case CodeUnauthorized, CodeTokenMissing, CodeTokenInvalid:
		return fiber.StatusUnauthorized
	case CodeForbidden, CodeNotMember:
		return fiber.StatusForbidden
	case CodeDuplicateRequestSent, CodeDuplicateRequestReceived, CodeAlreadyFriends,
		CodeDuplicateRoom, CodeAlreadyMember, CodeUsernameTaken:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil && appErr.Code != CodeInternal {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
