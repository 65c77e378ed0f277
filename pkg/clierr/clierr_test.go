package clierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_KeepsFields(t *testing.T) {
	cause := errors.New("HTTP 404")
	err := New(NotFound, "Tenant 12 was not found.", cause)

	assert.Equal(t, NotFound, err.Type)
	assert.Equal(t, "Tenant 12 was not found.", err.Error())
	assert.Same(t, cause, err.Unwrap())
}

func TestError_WithoutCause(t *testing.T) {
	err := New(Validation, "--to must not be before --from", nil)
	assert.NoError(t, err.Unwrap())
	assert.Equal(t, "--to must not be before --from", err.Error())
}

func TestError_SurvivesWrapping(t *testing.T) {
	cause := errors.New("refresh token rejected")
	wrapped := fmt.Errorf("list payments: %w", New(Auth, "Your session has expired.", cause))

	var ce *Error
	require.ErrorAs(t, wrapped, &ce)
	assert.Equal(t, Auth, ce.Type)
	assert.Equal(t, 3, ce.ExitCode())
	assert.ErrorIs(t, wrapped, cause)
}

func TestError_ExitCode(t *testing.T) {
	tests := []struct {
		typ  Type
		want int
	}{
		{Validation, 2},
		{Auth, 3},
		{NotFound, 4},
		{API, 5},
		{Internal, 1},
		{Type("unknown"), 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.typ, "x", nil).ExitCode())
		})
	}
}

func TestError_TypeNames(t *testing.T) {
	assert.Equal(t,
		[]string{"validation", "not_found", "auth", "api", "internal"},
		[]string{string(Validation), string(NotFound), string(Auth), string(API), string(Internal)},
	)
}
