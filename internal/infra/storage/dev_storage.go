package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"visitgate/internal/domain/ports/adapter"
)

// Ensure interface compliance
var _ adapter.BlobStorage = (*DevStorage)(nil)

// DevStorage discards uploads and returns a synthetic URL. Local runs only.
type DevStorage struct {
	log *zerolog.Logger
}

func NewDevStorage(log *zerolog.Logger) *DevStorage {
	return &DevStorage{log: log}
}

func (s *DevStorage) Upload(_ context.Context, key, contentType string, data []byte) (string, error) {
	s.log.Info().
		Str("key", key).
		Str("content_type", contentType).
		Int("bytes", len(data)).
		Msg("dev storage (discarded)")
	return fmt.Sprintf("https://storage.invalid/%s", key), nil
}
