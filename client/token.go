package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// TokenPair is what the token endpoints hand back. Refresh is empty when the
// backend does not rotate refresh tokens.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Refresher mints a new access token from a refresh token.
type Refresher interface {
	PerformTokenRefresh(ctx context.Context, refreshToken string) (TokenPair, error)
}

// TokenRefresher talks to the refresh endpoint with its own plain http.Client,
// so a refresh never passes through the 401 handling of Client.
type TokenRefresher struct {
	URL        string
	HTTPClient *http.Client
}

// NewTokenRefresher returns a refresher for the token/refresh/ endpoint under baseURL.
func NewTokenRefresher(baseURL string, timeout time.Duration) *TokenRefresher {
	return &TokenRefresher{
		URL:        strings.TrimRight(baseURL, "/") + "/token/refresh/",
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// PerformTokenRefresh posts the refresh token and returns the new token pair.
func (r *TokenRefresher) PerformTokenRefresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	payload, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to encode token refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(payload))
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to create token refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	hc := r.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}

	log.Debug().Str("url", r.URL).Msg("Refreshing access token")
	resp, err := hc.Do(req)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to post token refresh: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return TokenPair{}, fmt.Errorf("token refresh rejected: %w", newAPIError(resp))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to read token refresh response: %w", err)
	}

	var pair TokenPair
	if err := json.Unmarshal(body, &pair); err != nil {
		return TokenPair{}, fmt.Errorf("failed to parse token refresh response: %w", err)
	}
	if pair.Access == "" {
		return TokenPair{}, fmt.Errorf("token refresh response did not contain an access token")
	}
	return pair, nil
}
