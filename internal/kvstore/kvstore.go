// Package kvstore provides the string-keyed key/value backend the aircraft
// repository persists into. The interface mirrors the small command set the
// service actually needs: get/set/delete on single keys plus set membership
// for the flight inventory.
package kvstore

import "context"

// Store is the generic key/value backend. Get returns nil (not an error)
// when the key is absent; Delete reports whether a row was actually removed.
type Store interface {
	// Get retrieves the value for key, nil if absent.
	Get(ctx context.Context, key string) (*string, error)

	// Set stores value under key, overwriting any existing value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key, reporting whether anything was removed.
	Delete(ctx context.Context, key string) (bool, error)

	// AddToSet adds member to the named set. Adding an existing member is a no-op.
	AddToSet(ctx context.Context, set, member string) error

	// RemoveFromSet removes member from the named set, reporting whether it was present.
	RemoveFromSet(ctx context.Context, set, member string) (bool, error)

	// SetMembers returns all members of the named set.
	SetMembers(ctx context.Context, set string) ([]string, error)

	// Close releases the underlying connection.
	Close() error
}
