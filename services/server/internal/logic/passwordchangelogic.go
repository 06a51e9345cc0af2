package logic

import (
	"context"

	"github.com/cuihairu/faultline/internal/access"
	"github.com/cuihairu/faultline/internal/errs"
	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/cuihairu/faultline/services/server/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type PasswordChangeLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewPasswordChangeLogic(ctx context.Context, svcCtx *svc.ServiceContext) *PasswordChangeLogic {
	return &PasswordChangeLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *PasswordChangeLogic) PasswordChange(req *types.PasswordChangeRequest) (*types.MessageResponse, error) {
	caller, ok := access.IdentityFrom(l.ctx)
	if !ok {
		return nil, errs.Unauthenticated()
	}
	if err := l.svcCtx.Users.ChangePassword(l.ctx, caller, req.Id, req.CurrentPassword, req.NewPassword); err != nil {
		return nil, err
	}
	l.svcCtx.AuditEvent(l.ctx, "user.password", "", userTarget(req.Id), nil)
	if caller.UserID != req.Id {
		l.Infof("password of user %d reset by %s", req.Id, caller.Username)
	}
	return &types.MessageResponse{Message: "password updated"}, nil
}
