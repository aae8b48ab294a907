package folio

import "context"

// AssetStore is the capability interface over an external binary content
// store. Store accepts arbitrary bytes and a declared MIME type and
// returns an opaque handle; Resolve exchanges a handle for a fetchable
// URL, or "" when the handle is unknown or expired. Backend failures
// surface as errors wrapping ErrAssetUnavailable.
//
// The post store depends only on this interface, so tests run against an
// in-memory fake and production runs against S3-compatible storage.
type AssetStore interface {
	Store(ctx context.Context, data []byte, contentType string) (string, error)
	Resolve(ctx context.Context, handle string) (string, error)
}
