package folio

import "errors"

var (
	// ErrNotFound is returned by update/delete/lookup operations that
	// reference a post id that does not exist.
	ErrNotFound = errors.New("folio: post not found")

	// ErrDuplicateSlug is returned when a create or update would leave two
	// posts sharing the same slug. Slugs are the public lookup key, so the
	// store enforces uniqueness at write time.
	ErrDuplicateSlug = errors.New("folio: duplicate slug")

	// ErrAssetUnavailable wraps any failure of the asset backend. Read
	// paths degrade (a post without a resolvable cover still renders);
	// write paths reject, so a post is never saved with a dangling handle.
	ErrAssetUnavailable = errors.New("folio: asset backend unavailable")

	// ErrUnauthorized is returned when a capability token is missing,
	// malformed, or expired.
	ErrUnauthorized = errors.New("folio: unauthorized")

	// ErrNoSecret is returned at construction when the admin password or
	// token secret is empty. The gate fails closed rather than falling
	// back to a default.
	ErrNoSecret = errors.New("folio: admin secret not configured")
)
