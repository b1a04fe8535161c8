package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/JonMunkholm/memberdesk/internal/core"
	"github.com/JonMunkholm/memberdesk/internal/uploads"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&core.ImportError{Err: core.ErrNoSheet}, http.StatusBadRequest},
		{fmt.Errorf("get: %w", core.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("create member: %w", core.ErrDuplicate), http.StatusConflict},
		{core.ErrMembershipDateRequired, http.StatusBadRequest},
		{core.ErrBulkDeleteUnscoped, http.StatusBadRequest},
		{errBadJSON, http.StatusBadRequest},
		{core.ErrTooManyImports, http.StatusServiceUnavailable},
		{uploads.ErrUnsupportedImage, http.StatusUnsupportedMediaType},
		{&http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
