// Package ingest turns uploaded image payloads into compressed JPEGs in object
// storage. Every file is processed independently and reported on its own.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/cuihairu/faultline/internal/errs"
	"github.com/cuihairu/faultline/internal/platform/objstore"
	"github.com/cuihairu/faultline/internal/telemetry"
)

type Config struct {
	MaxFiles     int           `json:",default=5"`
	MaxDimension int           `json:",default=1024"`
	Quality      int           `json:",default=80"`
	Timeout      time.Duration `json:",default=30s"`
	Workers      int           `json:",default=2"`
	TempDir      string        `json:",optional"`
}

func (c Config) withDefaults() Config {
	if c.MaxFiles <= 0 {
		c.MaxFiles = 5
	}
	if c.MaxDimension <= 0 {
		c.MaxDimension = 1024
	}
	if c.Quality <= 0 {
		c.Quality = 80
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Workers <= 0 {
		c.Workers = 2
	}
	return c
}

// File is one uploaded payload.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Result reports the outcome for one File. URL is set only on success.
type Result struct {
	Name       string
	StoredName string
	URL        string
	Size       int64
	Err        error
}

func (r Result) OK() bool { return r.Err == nil }

type Pipeline struct {
	store   objstore.Store
	cfg     Config
	metrics *telemetry.FaultMetrics
	now     func() time.Time
}

func New(store objstore.Store, cfg Config, metrics *telemetry.FaultMetrics) *Pipeline {
	return &Pipeline{store: store, cfg: cfg.withDefaults(), metrics: metrics, now: time.Now}
}

func (p *Pipeline) MaxFiles() int { return p.cfg.MaxFiles }

// Ingest stores every file and returns one Result per input, in input order.
// The returned error is non-nil only when the batch is rejected as a whole,
// in which case nothing was stored.
func (p *Pipeline) Ingest(ctx context.Context, files []File) ([]Result, error) {
	if len(files) > p.cfg.MaxFiles {
		return nil, errs.Validation("at most %d images per request, got %d", p.cfg.MaxFiles, len(files))
	}
	if len(files) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	results := make([]Result, len(files))
	var g errgroup.Group
	g.SetLimit(p.cfg.Workers)
	for i := range files {
		g.Go(func() error {
			results[i] = p.ingestOne(ctx, files[i])
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

func (p *Pipeline) ingestOne(ctx context.Context, f File) Result {
	started := p.now()
	name := StoredName(f.Name, started)
	res := Result{Name: f.Name, StoredName: name}

	ctx, span := telemetry.Tracer().Start(ctx, "ingest.image")
	span.SetAttributes(attribute.String("image.name", f.Name), attribute.String("image.stored_name", name))
	defer span.End()

	data, err := p.process(ctx, f)
	if err == nil {
		err = p.store.Put(ctx, name, bytes.NewReader(data), int64(len(data)), "image/jpeg")
	}
	if err != nil {
		res.Err = errs.ImageProcessing(f.Name, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "image ingestion failed")
		p.metrics.ImageIngested(ctx, false, time.Since(started), 0)
		return res
	}
	res.URL = URLFor(name)
	res.Size = int64(len(data))
	span.SetAttributes(attribute.Int64("image.stored_bytes", res.Size))
	p.metrics.ImageIngested(ctx, true, time.Since(started), res.Size)
	return res
}

// process stages the original bytes on disk and compresses them off the request
// goroutine so the deadline can abandon a slow decode. The staged file is owned
// by whichever side finishes with it last.
func (p *Pipeline) process(ctx context.Context, f File) ([]byte, error) {
	if f.Body == nil {
		return nil, fmt.Errorf("empty upload")
	}
	staged, err := os.CreateTemp(p.cfg.TempDir, "faultline-upload-*")
	if err != nil {
		return nil, err
	}
	discard := func() {
		staged.Close()
		os.Remove(staged.Name())
	}
	n, err := io.Copy(staged, f.Body)
	if err == nil && n == 0 {
		err = fmt.Errorf("empty upload")
	}
	if err == nil {
		_, err = staged.Seek(0, io.SeekStart)
	}
	if err != nil {
		discard()
		return nil, fmt.Errorf("stage upload: %w", err)
	}

	type out struct {
		data []byte
		err  error
	}
	done := make(chan out, 1)
	go func() {
		data, _, err := Compress(staged, p.cfg.MaxDimension, p.cfg.Quality)
		discard()
		done <- out{data, err}
	}()
	select {
	case o := <-done:
		return o.data, o.err
	case <-ctx.Done():
		return nil, fmt.Errorf("compression timed out: %w", ctx.Err())
	}
}

// Remove deletes stored images by their public URL, returning the first error
// after attempting all of them.
func (p *Pipeline) Remove(ctx context.Context, urls ...string) error {
	var first error
	for _, u := range urls {
		key, ok := KeyFromURL(u)
		if !ok {
			continue
		}
		if err := p.store.Delete(ctx, key); err != nil && first == nil {
			first = fmt.Errorf("remove %s: %w", u, err)
		}
	}
	return first
}

// URLs collects the URLs of successful results.
func URLs(results []Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		if r.OK() {
			out = append(out, r.URL)
		}
	}
	return out
}
