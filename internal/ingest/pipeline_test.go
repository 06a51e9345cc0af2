package ingest

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cuihairu/faultline/internal/errs"
	"github.com/cuihairu/faultline/internal/platform/objstore"
)

// photo renders a gradient with sensor-like noise, which behaves like a
// photograph under lossless vs lossy encoding.
func photo(t *testing.T, w, h int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := uint8(rng.Intn(24))
			img.Set(x, y, color.NRGBA{R: uint8(x*255/w) ^ n, G: uint8(y*255/h) + n, B: 128 + n, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newPipeline(t *testing.T) (*Pipeline, *objstore.FileStore, string) {
	t.Helper()
	store, err := objstore.OpenFile(context.Background(), objstore.Config{BaseDir: filepath.Join(t.TempDir(), "uploads")})
	require.NoError(t, err)
	staging := t.TempDir()
	return New(store, Config{TempDir: staging}, nil), store, staging
}

func TestIngestResizesAndShrinks(t *testing.T) {
	p, store, staging := newPipeline(t)
	orig := photo(t, 1600, 1200)

	res, err := p.Ingest(context.Background(), []File{{Name: "Site Photo.PNG", Body: bytes.NewReader(orig)}})
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.NoError(t, res[0].Err)
	require.Regexp(t, regexp.MustCompile(`^/uploads/\d{13}-\d+\.png$`), res[0].URL)

	stored, err := os.ReadFile(store.Path(res[0].StoredName))
	require.NoError(t, err)
	require.Less(t, len(stored), len(orig))

	cfg, format, err := image.DecodeConfig(bytes.NewReader(stored))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	require.Equal(t, 1024, cfg.Width)
	require.Equal(t, 768, cfg.Height)

	left, err := os.ReadDir(staging)
	require.NoError(t, err)
	require.Empty(t, left, "staging files must be removed")
}

func TestIngestNeverUpscales(t *testing.T) {
	p, store, _ := newPipeline(t)
	res, err := p.Ingest(context.Background(), []File{{Name: "small.jpg", Body: bytes.NewReader(photo(t, 300, 200))}})
	require.NoError(t, err)
	require.NoError(t, res[0].Err)
	f, err := os.Open(store.Path(res[0].StoredName))
	require.NoError(t, err)
	defer f.Close()
	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	require.Equal(t, image.Pt(300, 200), img.Bounds().Size())
}

func TestIngestReportsPerFile(t *testing.T) {
	p, store, _ := newPipeline(t)
	res, err := p.Ingest(context.Background(), []File{
		{Name: "good.png", Body: bytes.NewReader(photo(t, 64, 64))},
		{Name: "broken.jpg", Body: strings.NewReader("definitely not an image")},
		{Name: "empty.jpg", Body: bytes.NewReader(nil)},
	})
	require.NoError(t, err)
	require.Len(t, res, 3)
	require.True(t, res[0].OK())
	require.True(t, errors.Is(res[1].Err, errs.ErrImageProcessing))
	require.True(t, errors.Is(res[2].Err, errs.ErrImageProcessing))
	require.Empty(t, res[1].URL)

	keys, err := store.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{res[0].StoredName}, keys)
	require.Equal(t, []string{res[0].URL}, URLs(res))
}

func TestIngestRejectsTooMany(t *testing.T) {
	p, store, _ := newPipeline(t)
	files := make([]File, 6)
	for i := range files {
		files[i] = File{Name: "x.png", Body: bytes.NewReader(photo(t, 8, 8))}
	}
	res, err := p.Ingest(context.Background(), files)
	require.Nil(t, res)
	require.True(t, errors.Is(err, errs.ErrValidation))
	keys, err := store.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestIngestTimeout(t *testing.T) {
	p, store, _ := newPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := p.Ingest(ctx, []File{{Name: "a.png", Body: bytes.NewReader(photo(t, 32, 32))}})
	require.NoError(t, err)
	require.Error(t, res[0].Err)
	keys, _ := store.List(context.Background())
	require.Empty(t, keys)
}

func TestRemoveByURL(t *testing.T) {
	p, store, _ := newPipeline(t)
	res, err := p.Ingest(context.Background(), []File{{Name: "a.png", Body: bytes.NewReader(photo(t, 16, 16))}})
	require.NoError(t, err)
	require.NoError(t, p.Remove(context.Background(), res[0].URL, "https://elsewhere/x.jpg"))
	_, err = os.Stat(store.Path(res[0].StoredName))
	require.True(t, os.IsNotExist(err))
}

func TestStoredNameAndKeys(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	require.Regexp(t, `^1700000000123-\d+\.jpg$`, StoredName("../../etc/passwd", now))
	require.Regexp(t, `^1700000000123-\d+\.webp$`, StoredName("a.WEBP", now))
	require.NotEqual(t, StoredName("a.jpg", now), StoredName("a.jpg", now))

	key, ok := KeyFromURL("/uploads/1-2.jpg")
	require.True(t, ok)
	require.Equal(t, "1-2.jpg", key)
	_, ok = KeyFromURL("/uploads/../secret")
	require.False(t, ok)
	_, ok = KeyFromURL("/static/1-2.jpg")
	require.False(t, ok)
}

func TestFit(t *testing.T) {
	cases := []struct{ w, h, ew, eh int }{
		{2048, 1024, 1024, 512},
		{1000, 3000, 341, 1024},
		{800, 600, 800, 600},
		{5000, 1, 1024, 1},
	}
	for _, c := range cases {
		w, h := Fit(c.w, c.h, 1024)
		require.Equal(t, [2]int{c.ew, c.eh}, [2]int{w, h}, "%dx%d", c.w, c.h)
	}
}
