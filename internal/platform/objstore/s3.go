package objstore

import (
	"context"
	"errors"
	"io"
	"time"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"
)

type s3Store struct {
	bk  *blob.Bucket
	ttl time.Duration
}

func OpenS3(ctx context.Context, c Config) (Store, error) {
	bk, err := blob.OpenBucket(ctx, buildS3URL(c))
	if err != nil {
		return nil, err
	}
	return &s3Store{bk: bk, ttl: ttlOrDefault(c)}, nil
}

// Put streams into a blob writer; the object only becomes visible on Close.
func (s *s3Store) Put(ctx context.Context, key string, r io.ReadSeeker, _ int64, contentType string) error {
	key = SanitizeKey(key)
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w, err := s.bk.NewWriter(wctx, key, &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		cancel()
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (s *s3Store) SignedURL(ctx context.Context, key string, method string, expiry time.Duration) (string, error) {
	m, err := signMethod(method)
	if err != nil {
		return "", err
	}
	return s.bk.SignedURL(ctx, SanitizeKey(key), &blob.SignedURLOptions{Method: m, Expiry: expiryOr(expiry, s.ttl)})
}

func (s *s3Store) Delete(ctx context.Context, key string) error {
	err := s.bk.Delete(ctx, SanitizeKey(key))
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil
	}
	return err
}

func (s *s3Store) List(ctx context.Context) ([]string, error) {
	var keys []string
	it := s.bk.List(nil)
	for {
		obj, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if !obj.IsDir {
			keys = append(keys, obj.Key)
		}
	}
	return keys, nil
}
