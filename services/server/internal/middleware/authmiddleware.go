package middleware

import (
	"net/http"

	"github.com/cuihairu/faultline/internal/access"
	"github.com/cuihairu/faultline/internal/errs"
	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpx"
)

// AuthMiddleware authenticates bearer tokens and gates routes on casbin permissions.
type AuthMiddleware struct {
	ctx *svc.ServiceContext
}

func NewAuthMiddleware(ctx *svc.ServiceContext) *AuthMiddleware {
	return &AuthMiddleware{ctx: ctx}
}

// Authenticated only requires a valid token; the handler decides the rest.
func (m *AuthMiddleware) Authenticated(next http.HandlerFunc) http.HandlerFunc {
	return m.Handle("", "")(next)
}

// Handle requires the caller's role to hold action on resource.
func (m *AuthMiddleware) Handle(resource, action string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			id, err := m.ctx.Authenticate(r)
			if err != nil {
				httpx.ErrorCtx(r.Context(), w, err)
				return
			}
			if resource != "" && !m.ctx.Enforcer.Can(string(id.Role), resource, action) {
				logx.WithContext(r.Context()).Infof("permission denied: user=%s role=%s %s:%s",
					id.Username, id.Role, resource, action)
				httpx.ErrorCtx(r.Context(), w, errs.Forbidden("role %s may not %s %s", id.Role, action, resource))
				return
			}
			next(w, r.WithContext(access.WithIdentity(r.Context(), id)))
		}
	}
}
