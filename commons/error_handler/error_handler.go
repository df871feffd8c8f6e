package error_handler

import (
	"net/http"

	"encore/commons/response"
)

type ErrorCollection struct {
	errors []response.Errors
}

func NewErrorCollection() *ErrorCollection {
	return &ErrorCollection{
		errors: make([]response.Errors, 0),
	}
}

func (ec *ErrorCollection) AddError(code int, message string, data any) *ErrorCollection {
	ec.errors = append(ec.errors, response.Errors{
		ErrorCode: code,
		Message:   message,
		Data:      data,
	})
	return ec
}

func (ec *ErrorCollection) HasErrors() bool {
	return len(ec.errors) > 0
}

func (ec *ErrorCollection) GetErrors() []response.Errors {
	return ec.errors
}

// GetHTTPStatus picks the status of the most severe error
func (ec *ErrorCollection) GetHTTPStatus() int {
	if !ec.HasErrors() {
		return http.StatusOK
	}

	status := http.StatusBadRequest
	for _, err := range ec.errors {
		switch {
		case err.ErrorCode >= 500:
			return http.StatusInternalServerError
		case err.ErrorCode == CodeNotFound:
			status = http.StatusNotFound
		}
	}

	return status
}

// Common error codes
const (
	CodeValidationError     = 400
	CodeNotFound            = 404
	CodeInternalServerError = 500
)

// NewValidationError is a collection holding a single 400
func NewValidationError(message string) *ErrorCollection {
	return NewErrorCollection().AddError(CodeValidationError, message, nil)
}

// NewNotFoundError is a collection holding a single 404
func NewNotFoundError(message string) *ErrorCollection {
	return NewErrorCollection().AddError(CodeNotFound, message, nil)
}

// NewInternalError is a collection holding a single 500
func NewInternalError(message string) *ErrorCollection {
	return NewErrorCollection().AddError(CodeInternalServerError, message, nil)
}

func GetInternalServerError(message string) response.Errors {
	return response.Errors{
		ErrorCode: CodeInternalServerError,
		Message:   message,
		Data:      nil,
	}
}
