package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"journal/config"
	"journal/pkg/logger"
)

var ErrStorageNotConfigured = errors.New("object storage is not configured")

// ObjectStorage downloads blobs by bucket and path
type ObjectStorage interface {
	Download(ctx context.Context, bucket string, path string) ([]byte, error)
}

type StorageClient struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	log        logger.Logger
}

func NewStorageClient(cfg config.Config) *StorageClient {
	return &StorageClient{
		baseURL:    strings.TrimRight(cfg.StorageURL, "/"),
		serviceKey: cfg.StorageServiceKey,
		httpClient: &http.Client{
			Timeout: StorageTimeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		log: logger.New("storageClient"),
	}
}

func (c *StorageClient) Configured() bool {
	return c != nil && c.baseURL != "" && c.serviceKey != ""
}

func objectURL(baseURL, bucket, path string) string {
	segments := strings.Split(strings.TrimLeft(path, "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return fmt.Sprintf(
		"%s/storage/v1/object/%s/%s",
		baseURL,
		url.PathEscape(bucket),
		strings.Join(segments, "/"),
	)
}

func (c *StorageClient) Download(ctx context.Context, bucket string, path string) ([]byte, error) {
	log := c.log.Function("Download")

	if !c.Configured() {
		return nil, ErrStorageNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, objectURL(c.baseURL, bucket, path), nil)
	if err != nil {
		return nil, log.Err("failed to build download request", err, "bucket", bucket)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, log.Err("failed to download object", err, "bucket", bucket, "path", path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, log.Error(
			fmt.Sprintf("Could not download audio (%d)", resp.StatusCode),
			"bucket", bucket,
			"path", path,
		)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxAudioDownloadSize+1))
	if err != nil {
		return nil, log.Err("failed to read object body", err, "bucket", bucket, "path", path)
	}
	if len(data) > MaxAudioDownloadSize {
		return nil, log.Error("audio exceeds maximum download size", "bucket", bucket, "path", path)
	}

	return data, nil
}
