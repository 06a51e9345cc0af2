// Package idempotency remembers the response to a request sent with an
// Idempotency-Key header so a client retrying after a dropped connection gets
// the original result instead of a duplicate fault.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/cuihairu/faultline/internal/db"
	"github.com/cuihairu/faultline/internal/errs"
	"gorm.io/gorm"
)

const maxKeyLen = 255

// Record is keyed by (user, key); keys of different users never collide.
type Record struct {
	ID           uint   `gorm:"primaryKey"`
	Key          string `gorm:"column:idempotency_key;size:255;uniqueIndex:idx_idempotency_user_key"`
	UserID       uint   `gorm:"uniqueIndex:idx_idempotency_user_key"`
	Route        string `gorm:"size:100"`
	RequestHash  string `gorm:"size:64"`
	StatusCode   int
	ResponseBody string    `gorm:"type:text"`
	ExpiresAt    time.Time `gorm:"index"`
	CreatedAt    time.Time
}

func (Record) TableName() string { return "idempotency_records" }

func AutoMigrate(db *gorm.DB) error { return db.AutoMigrate(&Record{}) }

type Store struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func NewStore(db *gorm.DB, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{db: db, ttl: ttl, now: time.Now}
}

// Hash fingerprints a request body. Parts are length-prefixed so ("ab","c")
// and ("a","bc") differ.
func Hash(parts ...[]byte) string {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		l := uint64(len(p))
		for i := range n {
			n[i] = byte(l >> (8 * i))
		}
		h.Write(n[:])
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func checkKey(key string) error {
	if key == "" || len(key) > maxKeyLen {
		return errs.Validation("Idempotency-Key must be 1-%d characters", maxKeyLen)
	}
	return nil
}

// Lookup returns the stored record for a live key, or nil when the key is new
// or expired. Reusing a key for a different request is a Conflict.
func (s *Store) Lookup(ctx context.Context, userID uint, key, route, requestHash string) (*Record, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	var rec Record
	err := s.db.WithContext(ctx).
		Where("idempotency_key = ? AND user_id = ? AND expires_at > ?", key, userID, s.now()).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Internal(err)
	}
	if rec.Route != route || rec.RequestHash != requestHash {
		return nil, errs.Conflict("Idempotency-Key %q was already used for a different request", key)
	}
	return &rec, nil
}

// Save records a response. An expired record under the same key is replaced;
// a live one means a concurrent request won and is reported as Conflict.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if err := checkKey(rec.Key); err != nil {
		return err
	}
	rec.ExpiresAt = s.now().Add(s.ttl)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("idempotency_key = ? AND user_id = ? AND expires_at <= ?", rec.Key, rec.UserID, s.now()).
			Delete(&Record{}).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
	if db.IsDuplicate(err) {
		return errs.Conflict("Idempotency-Key %q is already recorded", rec.Key)
	}
	if err != nil {
		return errs.Internal(err)
	}
	return nil
}

// Purge deletes expired records and reports how many went.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&Record{})
	if res.Error != nil {
		return 0, errs.Internal(res.Error)
	}
	return res.RowsAffected, nil
}
