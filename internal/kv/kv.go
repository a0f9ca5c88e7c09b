// Package kv is the persistence boundary for the whole service. Every
// collection (actor directory, session, repairs, deliveries, support
// messages, carts, wishlists, products) is one JSON document under one key,
// mirroring the storage layout the storefront views were built around.
//
// Store implementations must make Put all-or-nothing per key; they are not
// required to coordinate across keys. Cross-record invariants are enforced
// by the domain stores, which serialize their own read-modify-write cycles.
package kv

import "context"

// Store is the injectable document store port.
type Store interface {
	// Get returns the raw document and true, or (nil, false) when the key
	// has never been written or was deleted.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put replaces the document under key atomically.
	Put(ctx context.Context, key string, doc []byte) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys with the given prefix, in no particular order.
	// Used for the per-actor cart_<email> namespace.
	Keys(ctx context.Context, prefix string) ([]string, error)

	Close() error
}

// Well-known document keys. These match the storage layout of the original
// storefront so existing data migrates over unchanged.
const (
	KeyRegisteredUsers = "registeredUsers"
	KeyProducts        = "products"
	KeyRepairs         = "repairs"
	KeyDeliveries      = "deliveries"
	KeySupportMessages = "supportMessages"
	CartKeyPrefix      = "cart_"
	WishlistKeyPrefix  = "wishlist_"
	ResetTokenPrefix   = "resetToken_"

	// SessionKeyPrefix namespaces the session document per principal
	// (session_<email>). The original layout stored a single "user"
	// document because each browser held its own storage; on a shared
	// server that key must be scoped or every client reads the same
	// session.
	SessionKeyPrefix = "session_"

	// KeyLegacySession and KeyAdminMarker are the old single-browser
	// session document and the redundant admin flag. Neither is written
	// anymore; both are only deleted on logout to clean up old data.
	KeyLegacySession = "user"
	KeyAdminMarker   = "adminLoggedIn"
)
