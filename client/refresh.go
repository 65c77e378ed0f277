package client

import (
	"context"
	"errors"
	"sync"

	"github.com/habedi/rentdesk/db"
	"github.com/rs/zerolog/log"
)

// refreshOutcome is handed to every caller that waited on the same refresh.
type refreshOutcome struct {
	token string
	err   error
}

// refreshCoordinator makes sure only one refresh is in flight per Client.
// Callers that hit a 401 while a refresh runs are parked and resumed in
// arrival order once it settles.
type refreshCoordinator struct {
	mu         sync.Mutex
	refreshing bool
	pending    []chan refreshOutcome
}

// join either parks the caller behind the running refresh or makes it the
// one that performs the refresh.
func (rc *refreshCoordinator) join() (<-chan refreshOutcome, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.refreshing {
		ch := make(chan refreshOutcome, 1)
		rc.pending = append(rc.pending, ch)
		return ch, true
	}
	rc.refreshing = true
	return nil, false
}

// settle clears the in-flight flag and resolves every parked caller with out.
func (rc *refreshCoordinator) settle(out refreshOutcome) {
	rc.mu.Lock()
	pending := rc.pending
	rc.pending = nil
	rc.refreshing = false
	rc.mu.Unlock()

	for _, ch := range pending {
		ch <- out
	}
}

// snapshot is used by tests.
func (rc *refreshCoordinator) snapshot() (bool, int) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.refreshing, len(rc.pending)
}

// recoverSession returns a fresh access token after authErr, or the error every
// caller of this refresh cycle fails with.
func (c *Client) recoverSession(ctx context.Context, authErr *APIError) (string, error) {
	if wait, parked := c.coord.join(); parked {
		log.Debug().Msg("Token refresh already in flight, waiting for it")
		select {
		case out := <-wait:
			return out.token, out.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	out := refreshOutcome{err: &SessionError{Err: errors.New("token refresh aborted")}}
	defer func() { c.coord.settle(out) }()

	// One cancelled caller must not fail the refresh for everyone parked behind it.
	out = c.refresh(context.WithoutCancel(ctx), authErr)
	return out.token, out.err
}

func (c *Client) refresh(ctx context.Context, authErr *APIError) refreshOutcome {
	refreshToken, err := c.store.Get(ctx, db.SlotRefreshToken)
	if err != nil {
		return refreshOutcome{err: &SessionError{Err: err}}
	}

	if refreshToken == "" {
		log.Warn().Msg("Access token rejected and no refresh token is stored")
		if err := c.store.Delete(ctx, db.SlotAccessToken); err != nil {
			log.Error().Err(err).Msg("Failed to clear the access token")
		}
		return refreshOutcome{err: &SessionError{Err: authErr}}
	}

	pair, err := c.refresher.PerformTokenRefresh(ctx, refreshToken)
	if err != nil {
		log.Warn().Err(err).Msg("Token refresh failed, clearing the session")
		if delErr := c.store.Delete(ctx, db.SessionSlots...); delErr != nil {
			log.Error().Err(delErr).Msg("Failed to clear the session")
		}
		return refreshOutcome{err: &SessionError{Err: err}}
	}

	if err := c.store.Set(ctx, db.SlotAccessToken, pair.Access); err != nil {
		return refreshOutcome{err: &SessionError{Err: err}}
	}
	if pair.Refresh != "" {
		if err := c.store.Set(ctx, db.SlotRefreshToken, pair.Refresh); err != nil {
			log.Error().Err(err).Msg("Failed to store the rotated refresh token")
		}
	}

	log.Debug().Msg("Access token refreshed")
	return refreshOutcome{token: pair.Access}
}
