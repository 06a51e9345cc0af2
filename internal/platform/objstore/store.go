// Package objstore persists uploaded blobs to a local directory or an object store.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

type Store interface {
	// Put stores r under key. Readers of key never observe a partial object.
	Put(ctx context.Context, key string, r io.ReadSeeker, size int64, contentType string) error
	SignedURL(ctx context.Context, key string, method string, expiry time.Duration) (string, error)
	// Delete removes key; a key that is already gone is not an error.
	Delete(ctx context.Context, key string) error
}

// Lister is implemented by drivers that can enumerate their keys.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

const (
	DriverFile = "file"
	DriverS3   = "s3"
	DriverOSS  = "oss"
	DriverCOS  = "cos"
)

type Config struct {
	Driver         string        `json:",default=file,options=file|s3|oss|cos"`
	BaseDir        string        `json:",default=uploads"`
	Bucket         string        `json:",optional"`
	Region         string        `json:",optional"`
	Endpoint       string        `json:",optional"`
	AccessKey      string        `json:",optional"`
	SecretKey      string        `json:",optional"`
	ForcePathStyle bool          `json:",optional"`
	SignedURLTTL   time.Duration `json:",default=15m"`
}

func Validate(c Config) error {
	switch strings.ToLower(c.Driver) {
	case DriverS3:
		if c.Bucket == "" {
			return errors.New("bucket required for s3 driver")
		}
	case DriverOSS:
		if c.Bucket == "" {
			return errors.New("bucket required for oss driver")
		}
		if c.Endpoint == "" {
			return errors.New("endpoint required for oss driver")
		}
		if c.AccessKey == "" || c.SecretKey == "" {
			return errors.New("access_key/secret_key required for oss driver")
		}
	case DriverCOS:
		if c.Bucket == "" {
			return errors.New("bucket required for cos driver")
		}
		if c.Region == "" && c.Endpoint == "" {
			return errors.New("region or endpoint required for cos driver")
		}
		if c.AccessKey == "" || c.SecretKey == "" {
			return errors.New("access_key/secret_key required for cos driver")
		}
	case DriverFile:
		if c.BaseDir == "" {
			return errors.New("base_dir required for file driver")
		}
	case "":
		return errors.New("storage driver not set")
	default:
		return fmt.Errorf("unknown storage driver: %s", c.Driver)
	}
	return nil
}

// Open validates c and returns the matching driver.
func Open(ctx context.Context, c Config) (Store, error) {
	if err := Validate(c); err != nil {
		return nil, err
	}
	switch strings.ToLower(c.Driver) {
	case DriverS3:
		return OpenS3(ctx, c)
	case DriverOSS:
		return OpenOSS(ctx, c)
	case DriverCOS:
		return OpenCOS(ctx, c)
	default:
		fs, err := OpenFile(ctx, c)
		if err != nil {
			return nil, err
		}
		return fs, nil
	}
}

func ttlOrDefault(c Config) time.Duration {
	if c.SignedURLTTL > 0 {
		return c.SignedURLTTL
	}
	return 15 * time.Minute
}

func expiryOr(expiry, ttl time.Duration) time.Duration {
	if expiry > 0 {
		return expiry
	}
	return ttl
}

// signMethod normalises the HTTP method of a signed URL; empty means GET.
func signMethod(method string) (string, error) {
	switch m := strings.ToUpper(method); m {
	case "", http.MethodGet:
		return http.MethodGet, nil
	case http.MethodPut, http.MethodDelete:
		return m, nil
	default:
		return "", fmt.Errorf("unsupported signed url method: %s", method)
	}
}

// SanitizeKey prevents path traversal.
func SanitizeKey(key string) string {
	key = filepath.ToSlash(key)
	key = strings.TrimLeft(key, "/")
	parts := strings.Split(key, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, "/")
}

// buildS3URL constructs a gocloud s3 URL with query params.
func buildS3URL(c Config) string {
	u := url.URL{Scheme: "s3", Host: c.Bucket}
	q := url.Values{}
	if c.Region != "" {
		q.Set("region", c.Region)
	}
	if c.Endpoint != "" {
		q.Set("endpoint", c.Endpoint)
	}
	if c.ForcePathStyle {
		q.Set("s3ForcePathStyle", "true")
	}
	u.RawQuery = q.Encode()
	return u.String()
}
