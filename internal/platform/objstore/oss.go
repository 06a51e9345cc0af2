package objstore

import (
	"context"
	"io"
	"time"

	oss "github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// ossPageSize is the ListObjects page size; 1000 is the service maximum.
const ossPageSize = 1000

// ossStore keeps fault images in an Aliyun OSS bucket. Signing is local, so
// only Put, Delete and List reach the network.
type ossStore struct {
	bucket *oss.Bucket
	ttl    time.Duration
}

func OpenOSS(_ context.Context, c Config) (Store, error) {
	cli, err := oss.New(c.Endpoint, c.AccessKey, c.SecretKey)
	if err != nil {
		return nil, err
	}
	bucket, err := cli.Bucket(c.Bucket)
	if err != nil {
		return nil, err
	}
	return &ossStore{bucket: bucket, ttl: ttlOrDefault(c)}, nil
}

func (s *ossStore) Put(_ context.Context, key string, r io.ReadSeeker, _ int64, contentType string) error {
	var opts []oss.Option
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	return s.bucket.PutObject(SanitizeKey(key), r, opts...)
}

func (s *ossStore) SignedURL(_ context.Context, key string, method string, expiry time.Duration) (string, error) {
	m, err := signMethod(method)
	if err != nil {
		return "", err
	}
	return s.bucket.SignURL(SanitizeKey(key), oss.HTTPMethod(m), int64(expiryOr(expiry, s.ttl)/time.Second))
}

// Delete of an absent object succeeds on OSS.
func (s *ossStore) Delete(_ context.Context, key string) error {
	return s.bucket.DeleteObject(SanitizeKey(key))
}

func (s *ossStore) List(_ context.Context) ([]string, error) {
	var keys []string
	for marker := ""; ; {
		page, err := s.bucket.ListObjects(oss.Marker(marker), oss.MaxKeys(ossPageSize))
		if err != nil {
			return nil, err
		}
		for _, o := range page.Objects {
			keys = append(keys, o.Key)
		}
		if !page.IsTruncated {
			return keys, nil
		}
		marker = page.NextMarker
	}
}
