package logic

import (
	"context"

	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/cuihairu/faultline/services/server/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type AuthLoginLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewAuthLoginLogic(ctx context.Context, svcCtx *svc.ServiceContext) *AuthLoginLogic {
	return &AuthLoginLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *AuthLoginLogic) AuthLogin(req *types.LoginRequest) (*types.LoginResponse, error) {
	sess, err := l.svcCtx.Users.Login(l.ctx, req.Username, req.Password)
	if err != nil {
		l.Infof("login failed: user=%s err=%v", req.Username, err)
		l.svcCtx.AuditEvent(l.ctx, "auth.login_failed", req.Username, "", nil)
		return nil, err
	}
	l.svcCtx.AuditEvent(l.ctx, "auth.login", sess.User.Username, "", nil)
	return &types.LoginResponse{
		User:      *toUser(sess.User),
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}
