package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/habedi/rentdesk/db"
)

// TokenInfo is what can be read from an access token without verifying it.
// It is advisory only; the backend decides whether a token is accepted.
type TokenInfo struct {
	Valid     bool
	HasExpiry bool
	ExpiresAt time.Time
	Subject   string
}

// InspectToken decodes the token payload without checking the signature.
// A token without an exp claim counts as valid, a malformed one as invalid.
func InspectToken(token string, now time.Time) TokenInfo {
	if token == "" {
		return TokenInfo{}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}
	}

	info := TokenInfo{Valid: true}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return TokenInfo{}
	}
	if exp != nil {
		info.HasExpiry = true
		info.ExpiresAt = exp.Time
		info.Valid = now.Before(exp.Time)
	}
	return info
}

// Status summarizes the stored session for display.
type Status struct {
	LoggedIn bool
	Username string
	Access   TokenInfo
	Refresh  TokenInfo
}

// Status reads the stored slots and inspects both tokens. It never calls the backend.
func (s *Service) Status(ctx context.Context, now time.Time) (*Status, error) {
	access, err := s.Store.Get(ctx, db.SlotAccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to read access token: %w", err)
	}
	refresh, err := s.Store.Get(ctx, db.SlotRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh token: %w", err)
	}
	username, err := s.Store.Get(ctx, db.SlotUsername)
	if err != nil {
		return nil, fmt.Errorf("failed to read username: %w", err)
	}

	return &Status{
		LoggedIn: access != "",
		Username: username,
		Access:   InspectToken(access, now),
		Refresh:  InspectToken(refresh, now),
	}, nil
}
