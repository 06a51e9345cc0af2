package config

import (
	"time"

	"github.com/cuihairu/faultline/internal/events"
	"github.com/cuihairu/faultline/internal/ingest"
	"github.com/cuihairu/faultline/internal/platform/objstore"
	"github.com/cuihairu/faultline/internal/telemetry"
	"github.com/zeromicro/go-zero/rest"
)

type Config struct {
	rest.RestConf
	Database DatabaseConfig
	Auth     AuthConfig
	Storage  objstore.Config
	Images   ImagesConfig
	Events   events.Config
	Audit    AuditConfig `json:",optional"`
	// OTLP is separate from the go-zero Telemetry section so metrics and
	// traces share one exporter setup.
	OTLP telemetry.Config `json:",optional"`
}

type DatabaseConfig struct {
	// DataSource is a postgres URL or sqlite DSN; empty means data/faultline.db.
	DataSource  string `json:",optional"`
	AutoMigrate bool   `json:",default=true"`
	// IdempotencyTTL is how long an Idempotency-Key replays its response.
	IdempotencyTTL time.Duration `json:",default=24h"`
}

type AuthConfig struct {
	JWTSecret   string
	TokenTTL    time.Duration `json:",default=12h"`
	PolicyFile  string        `json:",default=etc/rbac_policy.csv"`
	WatchPolicy bool          `json:",default=true"`
}

// AuditConfig enables the hash-chained security log; empty File disables it.
type AuditConfig struct {
	File string `json:",optional"`
}

type ImagesConfig struct {
	MaxPerRequest  int           `json:",default=5"`
	MaxDimension   int           `json:",default=1024"`
	Quality        int           `json:",default=80,range=[1:100]"`
	Timeout        time.Duration `json:",default=30s"`
	Workers        int           `json:",default=2"`
	MaxUploadBytes int64         `json:",default=52428800"`
	TempDir        string        `json:",optional"`
}

// Pipeline converts the image section into the ingestion pipeline settings.
func (c ImagesConfig) Pipeline() ingest.Config {
	return ingest.Config{
		MaxFiles:     c.MaxPerRequest,
		MaxDimension: c.MaxDimension,
		Quality:      c.Quality,
		Timeout:      c.Timeout,
		Workers:      c.Workers,
		TempDir:      c.TempDir,
	}
}
