package cart

import "context"

// Repository persists carts between requests, keyed by an opaque session key
// issued to the storefront client. Load returns an empty cart, not an error,
// for an unknown key.
type Repository interface {
	Load(ctx context.Context, key string) (*Cart, error)
	Save(ctx context.Context, key string, c *Cart) error
	Delete(ctx context.Context, key string) error
}
