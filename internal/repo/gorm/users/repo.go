package usersgorm

import (
	"context"
	"errors"
	"strings"

	"github.com/cuihairu/faultline/internal/db"
	"github.com/cuihairu/faultline/internal/errs"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Repo struct{ db *gorm.DB }

func AutoMigrate(db *gorm.DB) error { return db.AutoMigrate(&UserAccount{}) }
func New(db *gorm.DB) *Repo         { return &Repo{db: db} }

func translate(err error, id any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.NotFound("user", id)
	case db.IsDuplicate(err):
		return errs.Conflict("username already exists")
	case db.IsForeignKey(err):
		return errs.Validation("user references a missing chiefdom")
	}
	return errs.Internal(err)
}

// HashPassword returns the bcrypt hash stored in PasswordHash.
func HashPassword(plain string) (string, error) {
	if strings.TrimSpace(plain) == "" {
		return "", errs.Validation("empty password")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", errs.Internal(err)
	}
	return string(h), nil
}

// CreateUser hashes plain into u.PasswordHash and inserts the row.
func (r *Repo) CreateUser(ctx context.Context, u *UserAccount, plain string) error {
	h, err := HashPassword(plain)
	if err != nil {
		return err
	}
	u.PasswordHash = h
	return translate(r.db.WithContext(ctx).Omit("Chiefdom").Create(u).Error, u.Username)
}

// UpdateUser saves profile fields. The password hash is only changed by SetPassword.
func (r *Repo) UpdateUser(ctx context.Context, u *UserAccount) error {
	res := r.db.WithContext(ctx).Model(&UserAccount{}).Where("id = ?", u.ID).
		Select("username", "name", "role", "chiefdom_id", "email", "phone").
		Updates(map[string]any{
			"username":    u.Username,
			"name":        u.Name,
			"role":        u.Role,
			"chiefdom_id": u.ChiefdomID,
			"email":       u.Email,
			"phone":       u.Phone,
		})
	if res.Error != nil {
		return translate(res.Error, u.ID)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("user", u.ID)
	}
	return nil
}

// DeleteUser refuses while the user is still the reporter or assignee of a fault.
func (r *Repo) DeleteUser(ctx context.Context, id uint) error {
	if _, err := r.GetUser(ctx, id); err != nil {
		return err
	}
	var n int64
	if err := r.db.WithContext(ctx).Table("faults").
		Where("reported_by_id = ? OR assigned_to_id = ?", id, id).Count(&n).Error; err != nil {
		return errs.Internal(err)
	}
	if n > 0 {
		return errs.HasDependents("user", id, "fault reports")
	}
	return translate(r.db.WithContext(ctx).Delete(&UserAccount{}, id).Error, id)
}

func (r *Repo) GetUser(ctx context.Context, id uint) (*UserAccount, error) {
	var u UserAccount
	if err := r.db.WithContext(ctx).Preload("Chiefdom").First(&u, id).Error; err != nil {
		return nil, translate(err, id)
	}
	return &u, nil
}

func (r *Repo) GetUserByUsername(ctx context.Context, username string) (*UserAccount, error) {
	var u UserAccount
	if err := r.db.WithContext(ctx).Preload("Chiefdom").Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translate(err, username)
	}
	return &u, nil
}

func (r *Repo) ListUsers(ctx context.Context, opts ListOptions) ([]*UserAccount, error) {
	q := r.db.WithContext(ctx).Preload("Chiefdom").Order("id DESC")
	if opts.Role != "" {
		q = q.Where("role = ?", opts.Role)
	}
	if opts.ChiefdomID > 0 {
		q = q.Where("chiefdom_id = ?", opts.ChiefdomID)
	}
	var arr []*UserAccount
	if err := q.Find(&arr).Error; err != nil {
		return nil, errs.Internal(err)
	}
	return arr, nil
}

func (r *Repo) SetPassword(ctx context.Context, userID uint, plain string) error {
	h, err := HashPassword(plain)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&UserAccount{}).Where("id = ?", userID).Update("password_hash", h)
	if res.Error != nil {
		return errs.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("user", userID)
	}
	return nil
}

// Verify checks the credentials. Unknown users and wrong passwords are indistinguishable.
func (r *Repo) Verify(ctx context.Context, username, plain string) (*UserAccount, error) {
	u, err := r.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.Auth()
		}
		return nil, err
	}
	if u.PasswordHash == "" {
		return nil, errs.Auth()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)); err != nil {
		return nil, errs.Auth()
	}
	return u, nil
}

// Exists reports whether a user row with the given id is present.
func (r *Repo) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&UserAccount{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, errs.Internal(err)
	}
	return n > 0, nil
}
