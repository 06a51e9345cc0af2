package objstore

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestOpenOSSSignsLocally(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, Config{Driver: "OSS", Bucket: "faults", Endpoint: "https://oss-cn-hangzhou.aliyuncs.com",
		AccessKey: "ak", SecretKey: "sk", SignedURLTTL: time.Minute})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := st.(Lister); !ok {
		t.Fatal("oss store should list keys for prune-uploads")
	}
	raw, err := st.SignedURL(ctx, "/../2025/1-a.jpg", "get", 0)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	if u.Host != "faults.oss-cn-hangzhou.aliyuncs.com" || u.Path != "/2025/1-a.jpg" {
		t.Fatalf("unexpected url %q", raw)
	}
	if _, err := st.SignedURL(ctx, "a.jpg", "PATCH", 0); err == nil {
		t.Fatal("expected unsupported method error")
	}
}

func TestOpenOSSRequiresCredentials(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: DriverOSS, Bucket: "faults", Endpoint: "https://oss-cn-hangzhou.aliyuncs.com"})
	if err == nil || !strings.Contains(err.Error(), "access_key") {
		t.Fatalf("want credentials error, got %v", err)
	}
}

func TestCOSBucketURL(t *testing.T) {
	cases := []struct {
		c    Config
		want string
	}{
		{Config{Bucket: "faults-125", Region: "ap-guangzhou"}, "https://faults-125.cos.ap-guangzhou.myqcloud.com"},
		{Config{Bucket: "faults", Endpoint: "http://minio.local:9000"}, "http://minio.local:9000/faults"},
		{Config{Bucket: "faults", Endpoint: "https://faults.cos.internal"}, "https://faults.cos.internal"},
		{Config{Bucket: "faults", Endpoint: "https://gw.local/faults"}, "https://gw.local/faults"},
	}
	for _, c := range cases {
		u, err := cosBucketURL(c.c)
		if err != nil {
			t.Fatalf("cosBucketURL(%+v): %v", c.c, err)
		}
		if u.String() != c.want {
			t.Errorf("cosBucketURL(%+v) = %s, want %s", c.c, u, c.want)
		}
	}
	if _, err := cosBucketURL(Config{Bucket: "faults"}); err == nil {
		t.Fatal("expected region error")
	}
}

func TestOpenCOSSignsLocally(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, Config{Driver: DriverCOS, Bucket: "faults-125", Region: "ap-guangzhou", AccessKey: "id", SecretKey: "key"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	raw, err := st.SignedURL(ctx, "2025/1-a.jpg", "", 5*time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	if u.Host != "faults-125.cos.ap-guangzhou.myqcloud.com" || u.Path != "/2025/1-a.jpg" || u.RawQuery == "" {
		t.Fatalf("unexpected url %q", raw)
	}
}

func TestSignMethod(t *testing.T) {
	for in, want := range map[string]string{"": "GET", "get": "GET", "PUT": "PUT", "delete": "DELETE"} {
		got, err := signMethod(in)
		if err != nil || got != want {
			t.Errorf("signMethod(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := signMethod("POST"); err == nil {
		t.Fatal("expected error for POST")
	}
	if expiryOr(0, time.Hour) != time.Hour || expiryOr(time.Second, time.Hour) != time.Second {
		t.Fatal("expiryOr")
	}
}
