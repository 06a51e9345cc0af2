package objstore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileStorePutListDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st, err := Open(ctx, Config{Driver: DriverFile, BaseDir: dir})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	fs := st.(*FileStore)

	if err := fs.Put(ctx, "a.jpg", bytes.NewReader([]byte("one")), 3, "image/jpeg"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := fs.Put(ctx, "a.jpg", bytes.NewReader([]byte("two")), 3, "image/jpeg"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "a.jpg"))
	if err != nil || string(b) != "two" {
		t.Fatalf("content mismatch: %q %v", b, err)
	}

	// stray temp files are in-flight writes, not objects
	if err := os.WriteFile(filepath.Join(dir, tmpPrefix+"x"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	keys, err := fs.List(ctx)
	if err != nil || len(keys) != 1 || keys[0] != "a.jpg" {
		t.Fatalf("list: %v %v", keys, err)
	}

	if err := fs.Delete(ctx, "a.jpg"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := fs.Delete(ctx, "a.jpg"); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := OpenFile(ctx, Config{BaseDir: filepath.Join(dir, "up")})
	if err != nil {
		t.Fatal(err)
	}
	if err := fs.Put(ctx, "../../escape.jpg", strings.NewReader("x"), 1, ""); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "up", "escape.jpg")); err != nil {
		t.Fatalf("expected key to be confined to base dir: %v", err)
	}
	u, _ := fs.SignedURL(ctx, "/../escape.jpg", "GET", 0)
	if u != "/uploads/escape.jpg" {
		t.Fatalf("unexpected url %q", u)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		c  Config
		ok bool
	}{
		{Config{Driver: "file", BaseDir: "x"}, true},
		{Config{Driver: "file"}, false},
		{Config{Driver: "s3"}, false},
		{Config{Driver: "oss", Bucket: "b", Endpoint: "e"}, false},
		{Config{Driver: "cos", Bucket: "b", Region: "r", AccessKey: "a", SecretKey: "s"}, true},
		{Config{Driver: "ftp"}, false},
		{Config{}, false},
	}
	for _, c := range cases {
		if err := Validate(c.c); (err == nil) != c.ok {
			t.Errorf("Validate(%+v) = %v", c.c, err)
		}
	}
}
