package svc

import (
	"net/http"
	"strings"

	"github.com/cuihairu/faultline/internal/access"
	"github.com/cuihairu/faultline/internal/errs"
)

// Authenticate resolves the bearer token to the current state of its account.
func (s *ServiceContext) Authenticate(r *http.Request) (access.Identity, error) {
	raw := bearerToken(r)
	if raw == "" {
		return access.Identity{}, errs.Unauthenticated()
	}
	claims, err := s.Tokens.Verify(raw)
	if err != nil {
		return access.Identity{}, errs.Unauthenticated()
	}
	return s.Users.Identity(r.Context(), claims.UserID)
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
