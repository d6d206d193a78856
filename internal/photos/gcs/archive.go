// Package gcs archives submitted photos in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Archive writes photos as objects in one bucket.
type Archive struct {
	client *storage.Client
	bucket string
}

// New connects with application default credentials, or with credJSON when
// it is not empty.
func New(ctx context.Context, bucket, credJSON string, opts ...option.ClientOption) (*Archive, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("gcs bucket required")
	}
	if strings.TrimSpace(credJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &Archive{client: client, bucket: bucket}, nil
}

// Put uploads data under key.
func (a *Archive) Put(ctx context.Context, key string, data []byte, contentType string) error {
	wc := a.client.Bucket(a.bucket).Object(key).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return fmt.Errorf("write gcs object %s: %w", key, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close gcs object %s: %w", key, err)
	}
	return nil
}

// Close releases the client.
func (a *Archive) Close() error {
	return a.client.Close()
}
