package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// PublicPrefix is the URL path the HTTP server serves file-driver objects under.
const PublicPrefix = "/uploads/"

const tmpPrefix = ".tmp-"

type FileStore struct {
	base string
	ttl  time.Duration
}

func OpenFile(_ context.Context, c Config) (*FileStore, error) {
	if c.BaseDir == "" {
		return nil, fmt.Errorf("base_dir required for file driver")
	}
	if err := os.MkdirAll(c.BaseDir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{base: c.BaseDir, ttl: ttlOrDefault(c)}, nil
}

func (s *FileStore) Base() string { return s.base }

// Path resolves key inside the base directory.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.base, filepath.FromSlash(SanitizeKey(key)))
}

// Put writes to a temp file in the destination directory and renames it into place.
func (s *FileStore) Put(ctx context.Context, key string, r io.ReadSeeker, _ int64, _ string) error {
	key = SanitizeKey(key)
	if key == "" {
		return errors.New("empty key")
	}
	path := filepath.Join(s.base, filepath.FromSlash(key))
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, tmpPrefix+"*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	ok := false
	defer func() {
		if !ok {
			_ = os.Remove(tmpName)
		}
	}()
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	ok = true
	return nil
}

// SignedURL returns the relative path served by the HTTP server.
func (s *FileStore) SignedURL(_ context.Context, key string, method string, _ time.Duration) (string, error) {
	if method == "DELETE" || method == "PUT" {
		return "", fmt.Errorf("not supported")
	}
	u := url.URL{Path: PublicPrefix + SanitizeKey(key)}
	return u.String(), nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// List returns every stored key in lexical order, skipping in-flight temp files.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tmpPrefix) {
			return nil
		}
		rel, err := filepath.Rel(s.base, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}
