package services

import "errors"

type ErrorCode string

const (
	ErrorInvalid  ErrorCode = "invalid"
	ErrorNotFound ErrorCode = "not_found"
)

// ServiceError carries a machine-readable code for the transport layer to map
// onto status codes.
type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error  { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewNotFoundError(msg string) error { return &ServiceError{Code: ErrorNotFound, Message: msg} }

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsNotFound reports whether err is a not_found service error.
func IsNotFound(err error) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == ErrorNotFound
}
