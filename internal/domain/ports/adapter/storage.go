package adapter

import "context"

// BlobStorage is the blob collaborator. Keys are deterministic
// (companies/<tenantId>/visitors/<code>.jpg); upload failure is a hard
// failure of the enclosing operation.
type BlobStorage interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (publicURL string, err error)
}
