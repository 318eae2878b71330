package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"visitgate/internal/domain/ports/adapter"
)

// Ensure interface compliance
var _ adapter.BlobStorage = (*HTTPStorage)(nil)

// HTTPStorage uploads blobs to an S3-compatible HTTP gateway via PUT and
// serves them back from a public base URL.
type HTTPStorage struct {
	client    *resty.Client
	publicURL string
}

func NewHTTPStorage(endpoint, apiKey, publicURL string) (*HTTPStorage, error) {
	if endpoint == "" || publicURL == "" {
		return nil, fmt.Errorf("storage: endpoint and public_url are required")
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(endpoint, "/")).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &HTTPStorage{
		client:    client,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func (s *HTTPStorage) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(data).
		Put("/" + strings.TrimLeft(key, "/"))
	if err != nil {
		return "", fmt.Errorf("storage: upload %s: %w", key, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("storage: upload %s: status=%d", key, resp.StatusCode())
	}
	return s.publicURL + "/" + strings.TrimLeft(key, "/"), nil
}
