package error_handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		ec   *ErrorCollection
		want int
	}{
		{name: "empty", ec: NewErrorCollection(), want: http.StatusOK},
		{name: "validation", ec: NewValidationError("bad schedule"), want: http.StatusBadRequest},
		{name: "not found", ec: NewNotFoundError("no such job"), want: http.StatusNotFound},
		{name: "internal", ec: NewInternalError("store down"), want: http.StatusInternalServerError},
		{
			name: "internal wins",
			ec:   NewNotFoundError("no such job").AddError(CodeInternalServerError, "store down", nil),
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ec.GetHTTPStatus())
		})
	}
}
