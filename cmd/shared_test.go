package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/habedi/rentdesk/auth"
	"github.com/habedi/rentdesk/client"
	"github.com/habedi/rentdesk/pkg/clierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCLIError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType clierr.Type
		wantCode int
	}{
		{"already classified", clierr.New(clierr.Validation, "bad", nil), clierr.Validation, 2},
		{"login", &auth.LoginError{Message: "nope"}, clierr.Auth, 3},
		{"session expired", &client.SessionError{Err: errors.New("refresh rejected")}, clierr.Auth, 3},
		{"not logged in", fmt.Errorf("wrapped: %w", auth.ErrNotLoggedIn), clierr.Auth, 3},
		{"not found", &client.APIError{StatusCode: http.StatusNotFound}, clierr.NotFound, 4},
		{"bad request", &client.APIError{StatusCode: http.StatusBadRequest}, clierr.Validation, 2},
		{"forbidden", &client.APIError{StatusCode: http.StatusForbidden}, clierr.Auth, 3},
		{"server error", &client.APIError{StatusCode: http.StatusBadGateway}, clierr.API, 5},
		{"other", errors.New("disk full"), clierr.Internal, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := toCLIError(tt.err)
			assert.Equal(t, tt.wantType, ce.Type)
			assert.Equal(t, tt.wantCode, ce.ExitCode())
			assert.NotEmpty(t, ce.Message)
		})
	}
}

func TestToCLIError_KeepsBackendDetail(t *testing.T) {
	ce := toCLIError(&client.APIError{StatusCode: http.StatusBadRequest, Detail: "monthly_rent: A valid number is required."})
	assert.Equal(t, "monthly_rent: A valid number is required.", ce.Message)
}

func TestParseID(t *testing.T) {
	id, err := parseID("tenant", "42")
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	for _, arg := range []string{"0", "-3", "x", ""} {
		_, err := parseID("tenant", arg)
		var ce *clierr.Error
		require.ErrorAs(t, err, &ce, arg)
		assert.Equal(t, clierr.Validation, ce.Type)
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{999, "999 B"},
		{1024, "1.0KiB"},
		{1024*1024 + 512*1024, "1.5MiB"},
	}
	for _, c := range cases {
		got := formatBytes(c.in)
		if got != c.want {
			t.Fatalf("formatBytes(%d)=%q, want %q", c.in, got, c.want)
		}
	}
}

type fakeLister struct {
	calls atomic.Int32
	items []client.Notification
	err   error
}

func (f *fakeLister) ListNotifications(context.Context, bool) ([]client.Notification, error) {
	f.calls.Add(1)
	return f.items, f.err
}

func TestNotificationWatcher_StopsOnLostSession(t *testing.T) {
	lister := &fakeLister{err: &client.SessionError{Err: errors.New("refresh rejected")}}
	w := newNotificationWatcher(lister, new(bytes.Buffer))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	err := w.run(ctx, time.Second)
	assert.ErrorIs(t, err, client.ErrSessionExpired)
	assert.Less(t, time.Since(start), 4*time.Second)
	assert.EqualValues(t, 1, lister.calls.Load())
}

func TestNotificationWatcher_KeepsGoingOnOtherErrors(t *testing.T) {
	lister := &fakeLister{err: &client.APIError{StatusCode: http.StatusBadGateway}}
	var out bytes.Buffer
	w := newNotificationWatcher(lister, &out)

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	require.NoError(t, w.run(ctx, time.Second))
	assert.GreaterOrEqual(t, lister.calls.Load(), int32(2))
	assert.Empty(t, out.String())
}
