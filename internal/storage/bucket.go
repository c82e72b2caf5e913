package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// BucketStore talks to an external object store exposing a
// Supabase-style HTTP object API. Blobs are addressed as
// {base}/storage/v1/object/{bucket}/{path}.
type BucketStore struct {
	baseURL    string
	bucket     string
	serviceKey string
	httpClient *client.Client
}

// NewBucketStore creates a BucketStore
func NewBucketStore(baseURL, bucket, serviceKey string) (*BucketStore, error) {
	httpClient, err := client.NewClient(
		client.WithDialTimeout(10*time.Second),
		client.WithClientReadTimeout(30*time.Second),
		client.WithWriteTimeout(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}
	return &BucketStore{
		baseURL:    baseURL,
		bucket:     bucket,
		serviceKey: serviceKey,
		httpClient: httpClient,
	}, nil
}

func (s *BucketStore) objectURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, path)
}

// Put uploads a blob
func (s *BucketStore) Put(ctx context.Context, path, contentType string, data []byte) error {
	req := &protocol.Request{}
	resp := &protocol.Response{}

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(s.objectURL(path))
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Content-Type", contentType)
	req.SetBody(data)

	if err := s.httpClient.Do(ctx, req, resp); err != nil {
		return fmt.Errorf("failed to upload blob: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("upload blob failed: status %d: %s", resp.StatusCode(), resp.Body())
	}
	return nil
}

// Get downloads a blob
func (s *BucketStore) Get(ctx context.Context, path string) ([]byte, string, error) {
	req := &protocol.Request{}
	resp := &protocol.Response{}

	req.SetMethod(consts.MethodGet)
	req.SetRequestURI(s.objectURL(path))
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)

	if err := s.httpClient.Do(ctx, req, resp); err != nil {
		return nil, "", fmt.Errorf("failed to download blob: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, "", ErrNotFound
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, "", fmt.Errorf("download blob failed: status %d", resp.StatusCode())
	}

	contentType := string(resp.Header.ContentType())
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	// Copy out: the response body buffer is reused by the client.
	body := resp.Body()
	data := make([]byte, len(body))
	copy(data, body)
	return data, contentType, nil
}

// Exists probes a blob with a HEAD request
func (s *BucketStore) Exists(ctx context.Context, path string) (bool, error) {
	req := &protocol.Request{}
	resp := &protocol.Response{}

	req.SetMethod(consts.MethodHead)
	req.SetRequestURI(s.objectURL(path))
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)

	if err := s.httpClient.Do(ctx, req, resp); err != nil {
		return false, fmt.Errorf("failed to probe blob: %w", err)
	}
	return resp.StatusCode() == http.StatusOK, nil
}
