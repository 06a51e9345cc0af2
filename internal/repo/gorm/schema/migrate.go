// Package schema migrates every gorm model in dependency order.
package schema

import (
	"fmt"

	"github.com/cuihairu/faultline/internal/repo/gorm/faults"
	"github.com/cuihairu/faultline/internal/repo/gorm/idempotency"
	"github.com/cuihairu/faultline/internal/repo/gorm/org"
	usersgorm "github.com/cuihairu/faultline/internal/repo/gorm/users"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	steps := []struct {
		name string
		fn   func(*gorm.DB) error
	}{
		{"org", org.AutoMigrate},
		{"users", usersgorm.AutoMigrate},
		{"faults", faults.AutoMigrate},
		{"idempotency", idempotency.AutoMigrate},
	}
	for _, s := range steps {
		if err := s.fn(db); err != nil {
			return fmt.Errorf("migrate %s: %w", s.name, err)
		}
	}
	return nil
}
