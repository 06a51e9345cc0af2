// Package users handles accounts, login and password changes.
package users

import (
	"context"
	"strings"
	"time"

	"github.com/cuihairu/faultline/internal/access"
	"github.com/cuihairu/faultline/internal/errs"
	usersgorm "github.com/cuihairu/faultline/internal/repo/gorm/users"
)

// bcrypt ignores input past 72 bytes.
const maxPasswordLen = 72

// Signer issues session tokens.
type Signer interface {
	Sign(userID uint, username, role string) (string, time.Time, error)
}

type Service struct {
	repo   *usersgorm.Repo
	tokens Signer
}

func NewService(repo *usersgorm.Repo, tokens Signer) *Service {
	return &Service{repo: repo, tokens: tokens}
}

type Session struct {
	User      *usersgorm.UserAccount
	Token     string
	ExpiresAt time.Time
}

type CreateInput struct {
	Username   string
	Password   string
	Name       string
	Role       string
	ChiefdomID *uint
	Email      string
	Phone      string
}

// UpdateInput carries the fields to change; nil leaves a field untouched.
type UpdateInput struct {
	Username      *string
	Name          *string
	Role          *string
	ChiefdomID    *uint
	ClearChiefdom bool
	Email         *string
	Phone         *string
}

func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errs.Validation("username and password are required")
	}
	u, err := s.repo.Verify(ctx, username, password)
	if err != nil {
		return nil, err
	}
	tok, exp, err := s.tokens.Sign(u.ID, u.Username, u.Role)
	if err != nil {
		return nil, errs.Internal(err)
	}
	return &Session{User: u, Token: tok, ExpiresAt: exp}, nil
}

// Identity reloads the account behind an authenticated request so role and
// chiefdom changes take effect without a new login.
func (s *Service) Identity(ctx context.Context, userID uint) (access.Identity, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			return access.Identity{}, errs.Unauthenticated()
		}
		return access.Identity{}, err
	}
	role, err := access.ParseRole(u.Role)
	if err != nil {
		return access.Identity{}, errs.Forbidden("account role %q is not recognised", u.Role)
	}
	return access.Identity{UserID: u.ID, Username: u.Username, Role: role, ChiefdomID: u.ChiefdomID}, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*usersgorm.UserAccount, error) {
	u := &usersgorm.UserAccount{
		Username:   strings.TrimSpace(in.Username),
		Name:       strings.TrimSpace(in.Name),
		Role:       strings.TrimSpace(in.Role),
		ChiefdomID: nonZero(in.ChiefdomID),
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
	}
	if err := checkAccount(u); err != nil {
		return nil, err
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}
	if err := s.repo.CreateUser(ctx, u, in.Password); err != nil {
		return nil, err
	}
	return s.repo.GetUser(ctx, u.ID)
}

func (s *Service) Update(ctx context.Context, id uint, in UpdateInput) (*usersgorm.UserAccount, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Username != nil {
		u.Username = strings.TrimSpace(*in.Username)
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Role != nil {
		u.Role = strings.TrimSpace(*in.Role)
	}
	switch {
	case in.ClearChiefdom:
		u.ChiefdomID = nil
	case in.ChiefdomID != nil:
		u.ChiefdomID = nonZero(in.ChiefdomID)
	}
	if in.Email != nil {
		u.Email = strings.TrimSpace(*in.Email)
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if err := checkAccount(u); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return s.repo.GetUser(ctx, id)
}

func (s *Service) Get(ctx context.Context, id uint) (*usersgorm.UserAccount, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *Service) List(ctx context.Context, role string, chiefdomID uint) ([]*usersgorm.UserAccount, error) {
	if role != "" {
		if _, err := access.ParseRole(role); err != nil {
			return nil, err
		}
	}
	return s.repo.ListUsers(ctx, usersgorm.ListOptions{Role: role, ChiefdomID: chiefdomID})
}

func (s *Service) Delete(ctx context.Context, caller access.Identity, id uint) error {
	if caller.UserID == id {
		return errs.Validation("cannot delete your own account")
	}
	return s.repo.DeleteUser(ctx, id)
}

// ChangePassword sets a new password for target. Users changing their own
// password must present the current one; admins resetting someone else's do not.
func (s *Service) ChangePassword(ctx context.Context, caller access.Identity, target uint, current, next string) error {
	self := caller.UserID == target
	if !self && !caller.IsAdmin() {
		return errs.Forbidden("cannot change another user's password")
	}
	if err := checkPassword(next); err != nil {
		return err
	}
	if self {
		if current == "" {
			return errs.Validation("currentPassword is required")
		}
		if _, err := s.repo.Verify(ctx, caller.Username, current); err != nil {
			return errs.Validation("current password is incorrect")
		}
	}
	return s.repo.SetPassword(ctx, target, next)
}

func checkAccount(u *usersgorm.UserAccount) error {
	if u.Username == "" {
		return errs.Validation("username is required")
	}
	role, err := access.ParseRole(u.Role)
	if err != nil {
		return err
	}
	u.Role = string(role)
	if role == access.RoleWorker && u.ChiefdomID == nil {
		return errs.Validation("worker accounts require a chiefdom")
	}
	return nil
}

func checkPassword(p string) error {
	if strings.TrimSpace(p) == "" {
		return errs.Validation("password is required")
	}
	if len(p) > maxPasswordLen {
		return errs.Validation("password longer than %d bytes", maxPasswordLen)
	}
	return nil
}

func nonZero(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	v := *id
	return &v
}
