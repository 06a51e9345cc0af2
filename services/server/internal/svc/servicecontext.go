package svc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cuihairu/faultline/internal/audit/chain"
	"github.com/cuihairu/faultline/internal/auth/rbac"
	"github.com/cuihairu/faultline/internal/auth/token"
	"github.com/cuihairu/faultline/internal/db"
	"github.com/cuihairu/faultline/internal/events"
	"github.com/cuihairu/faultline/internal/hotreload"
	"github.com/cuihairu/faultline/internal/ingest"
	"github.com/cuihairu/faultline/internal/platform/objstore"
	repofaults "github.com/cuihairu/faultline/internal/repo/gorm/faults"
	"github.com/cuihairu/faultline/internal/repo/gorm/idempotency"
	repoorg "github.com/cuihairu/faultline/internal/repo/gorm/org"
	"github.com/cuihairu/faultline/internal/repo/gorm/schema"
	usersgorm "github.com/cuihairu/faultline/internal/repo/gorm/users"
	faultsvc "github.com/cuihairu/faultline/internal/service/faults"
	orgsvc "github.com/cuihairu/faultline/internal/service/org"
	usersvc "github.com/cuihairu/faultline/internal/service/users"
	"github.com/cuihairu/faultline/internal/telemetry"
	"github.com/cuihairu/faultline/services/server/internal/config"
	"github.com/zeromicro/go-zero/core/logx"
	"gorm.io/gorm"
)

type ServiceContext struct {
	Config config.Config

	DB        *gorm.DB
	Store     objstore.Store
	Images    *ingest.Pipeline
	Events    events.Publisher
	Telemetry *telemetry.Provider
	Enforcer  *rbac.Enforcer
	Tokens    *token.Manager
	// Audit is nil when Audit.File is unset; logging to it is then a no-op.
	Audit       *chain.Writer
	Idempotency *idempotency.Store

	Faults *faultsvc.Service
	Org    *orgsvc.Service
	Users  *usersvc.Service

	watcher *hotreload.Watcher
	cancel  context.CancelFunc
}

func NewServiceContext(c config.Config) (*ServiceContext, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &ServiceContext{Config: c, cancel: cancel}
	if err := s.init(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *ServiceContext) init(ctx context.Context) error {
	c := s.Config
	var err error
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("Auth.JWTSecret is required")
	}

	if s.Telemetry, err = telemetry.NewProvider(ctx, c.OTLP); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	if s.DB, err = db.Open(c.Database.DataSource); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if c.Database.AutoMigrate {
		if err := schema.Migrate(s.DB); err != nil {
			return err
		}
	}
	if s.Store, err = objstore.Open(ctx, c.Storage); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if s.Events, err = events.New(c.Events); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	if s.Enforcer, err = rbac.NewEnforcer(c.Auth.PolicyFile); err != nil {
		return fmt.Errorf("rbac: %w", err)
	}
	s.Tokens = token.NewManager(c.Auth.JWTSecret, c.Auth.TokenTTL)
	if c.Audit.File != "" {
		if s.Audit, err = chain.Open(c.Audit.File); err != nil {
			return fmt.Errorf("audit: %w", err)
		}
	}
	s.Idempotency = idempotency.NewStore(s.DB, c.Database.IdempotencyTTL)

	s.Images = ingest.New(s.Store, c.Images.Pipeline(), s.Telemetry.Metrics)
	s.Faults = faultsvc.NewService(repofaults.NewRepo(s.DB), s.Images, s.Events, s.Telemetry.Metrics)
	s.Org = orgsvc.NewService(repoorg.NewRepo(s.DB))
	s.Users = usersvc.NewService(usersgorm.New(s.DB), s.Tokens)

	if c.Auth.WatchPolicy && s.Enforcer.PolicyPath() != "" {
		s.watchPolicy(ctx)
	}
	logx.Infof("storage=%s events=%s policy=%s", c.Storage.Driver, c.Events.Driver, c.Auth.PolicyFile)
	return nil
}

// watchPolicy reloads the casbin policy when its file changes. Failing to
// watch only disables reloading.
func (s *ServiceContext) watchPolicy(ctx context.Context) {
	w, err := hotreload.NewWatcher(slog.Default(), 500*time.Millisecond)
	if err != nil {
		logx.Errorf("policy watcher: %v", err)
		return
	}
	err = w.Watch(s.Enforcer.PolicyPath(), func(context.Context, string) error {
		return s.Enforcer.Reload()
	})
	if err != nil {
		logx.Errorf("policy watcher: %v", err)
		_ = w.Stop()
		return
	}
	if err := w.Start(ctx); err != nil {
		logx.Errorf("policy watcher: %v", err)
		_ = w.Stop()
		return
	}
	s.watcher = w
}

// Close releases every resource opened by NewServiceContext.
func (s *ServiceContext) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.watcher != nil {
		_ = s.watcher.Stop()
	}
	var errList []error
	if s.Events != nil {
		errList = append(errList, s.Events.Close())
	}
	errList = append(errList, s.Audit.Close())
	if s.DB != nil {
		if sqlDB, err := s.DB.DB(); err == nil {
			errList = append(errList, sqlDB.Close())
		}
	}
	if s.Telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errList = append(errList, s.Telemetry.Shutdown(ctx))
	}
	return errors.Join(errList...)
}
