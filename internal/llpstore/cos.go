package llpstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tencentyun/cos-go-sdk-v5"
)

// COSConfig holds the Tencent Cloud COS connection parameters for a
// remote Backend, mirroring the teacher's object-storage configuration.
type COSConfig struct {
	Bucket    string
	Region    string
	SecretID  string
	SecretKey string
	Domain    string // e.g., "myqcloud.com"
	Scheme    string // e.g., "https" or "http"
}

// COSBackend implements Backend on top of Tencent Cloud's Object Storage
// Service, for runs whose label arrays need to outlive the local machine
// (shared across a combine phase run from a different host, or archived
// after the fact).
type COSBackend struct {
	client   *cos.Client
	compress bool
}

// NewCOSBackend dials a COS bucket per cfg.
func NewCOSBackend(cfg *COSConfig, compress bool) (*COSBackend, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, fmt.Errorf("llpstore: bucket and region are required for COS backend")
	}
	if cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("llpstore: credentials are required for COS backend")
	}

	domain := cfg.Domain
	if domain == "" {
		domain = "myqcloud.com"
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "https"
	}

	bucketURL, err := url.Parse(fmt.Sprintf("%s://%s.cos.%s.%s", scheme, cfg.Bucket, cfg.Region, domain))
	if err != nil {
		return nil, fmt.Errorf("llpstore: parsing bucket URL: %w", err)
	}
	serviceURL, err := url.Parse(fmt.Sprintf("%s://cos.%s.%s", scheme, cfg.Region, domain))
	if err != nil {
		return nil, fmt.Errorf("llpstore: parsing service URL: %w", err)
	}

	client := cos.NewClient(&cos.BaseURL{
		BucketURL:  bucketURL,
		ServiceURL: serviceURL,
	}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
		},
	})

	return &COSBackend{client: client, compress: compress}, nil
}

func (b *COSBackend) Put(ctx context.Context, key string, labels []uint64) error {
	blob, err := encode(labels, b.compress)
	if err != nil {
		return err
	}
	if _, err := b.client.Object.Put(ctx, key, bytes.NewReader(blob), nil); err != nil {
		return fmt.Errorf("llpstore: uploading %s to COS: %w", key, err)
	}
	return nil
}

func (b *COSBackend) Get(ctx context.Context, key string) ([]uint64, error) {
	resp, err := b.client.Object.Get(ctx, key, nil)
	if err != nil {
		return nil, fmt.Errorf("llpstore: downloading %s from COS: %w", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("llpstore: reading %s from COS: %w", key, err)
	}
	return decode(data, b.compress)
}

func (b *COSBackend) Delete(ctx context.Context, key string) error {
	if _, err := b.client.Object.Delete(ctx, key, nil); err != nil {
		return fmt.Errorf("llpstore: deleting %s from COS: %w", key, err)
	}
	return nil
}
