package svc

import (
	"context"

	"github.com/cuihairu/faultline/internal/access"
	"github.com/zeromicro/go-zero/core/logx"
)

// AuditEvent appends a security event attributed to the caller in ctx, or to
// actor when the request is not authenticated yet. A failed write is logged and
// never fails the request.
func (s *ServiceContext) AuditEvent(ctx context.Context, kind, actor, target string, meta map[string]string) {
	if s.Audit == nil {
		return
	}
	if id, ok := access.IdentityFrom(ctx); ok {
		actor = id.Username
	}
	if err := s.Audit.Log(kind, actor, target, meta); err != nil {
		logx.WithContext(ctx).Errorf("audit %s: %v", kind, err)
	}
}
