package objstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	cos "github.com/tencentyun/cos-go-sdk-v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// cosStore keeps fault images in a Tencent COS bucket.
type cosStore struct {
	cli       *cos.Client
	ttl       time.Duration
	secretID  string
	secretKey string
}

// cosBucketURL resolves the bucket base URL. A custom endpoint that does not
// name the bucket in its host or path is addressed path-style.
func cosBucketURL(c Config) (*url.URL, error) {
	if c.Endpoint == "" {
		if c.Region == "" {
			return nil, fmt.Errorf("region required for cos when endpoint empty")
		}
		return url.Parse(fmt.Sprintf("https://%s.cos.%s.myqcloud.com", c.Bucket, c.Region))
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(u.Host, c.Bucket) && !strings.HasSuffix(u.Path, "/"+c.Bucket) {
		u.Path = "/" + c.Bucket
	}
	return u, nil
}

func OpenCOS(_ context.Context, c Config) (Store, error) {
	base, err := cosBucketURL(c)
	if err != nil {
		return nil, err
	}
	tr := &cos.AuthorizationTransport{
		SecretID:  c.AccessKey,
		SecretKey: c.SecretKey,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	cli := cos.NewClient(&cos.BaseURL{BucketURL: base}, &http.Client{Transport: tr})
	return &cosStore{cli: cli, ttl: ttlOrDefault(c), secretID: c.AccessKey, secretKey: c.SecretKey}, nil
}

func (s *cosStore) Put(ctx context.Context, key string, r io.ReadSeeker, _ int64, contentType string) error {
	opt := &cos.ObjectPutOptions{}
	if contentType != "" {
		opt.ObjectPutHeaderOptions = &cos.ObjectPutHeaderOptions{ContentType: contentType}
	}
	_, err := s.cli.Object.Put(ctx, SanitizeKey(key), r, opt)
	return err
}

func (s *cosStore) SignedURL(ctx context.Context, key string, method string, expiry time.Duration) (string, error) {
	m, err := signMethod(method)
	if err != nil {
		return "", err
	}
	u, err := s.cli.Object.GetPresignedURL(ctx, m, SanitizeKey(key), s.secretID, s.secretKey, expiryOr(expiry, s.ttl), nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (s *cosStore) Delete(ctx context.Context, key string) error {
	resp, err := s.cli.Object.Delete(ctx, SanitizeKey(key))
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return nil
	}
	return err
}
