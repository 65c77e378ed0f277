package auth

import (
	"context"
	"net/url"
)

// API defines the backend calls the session service makes.
// *client.Client satisfies it.
type API interface {
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
	PostJSONNoRefresh(ctx context.Context, path string, in, out any) error
}

// SlotStore defines the contract for the persisted session slots.
// db.SlotRepository satisfies it.
type SlotStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}
