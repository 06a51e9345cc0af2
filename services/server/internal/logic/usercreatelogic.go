package logic

import (
	"context"

	usersvc "github.com/cuihairu/faultline/internal/service/users"
	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/cuihairu/faultline/services/server/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type UserCreateLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewUserCreateLogic(ctx context.Context, svcCtx *svc.ServiceContext) *UserCreateLogic {
	return &UserCreateLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *UserCreateLogic) UserCreate(req *types.UserCreateRequest) (*types.User, error) {
	u, err := l.svcCtx.Users.Create(l.ctx, usersvc.CreateInput{
		Username:   req.Username,
		Password:   req.Password,
		Name:       req.Name,
		Role:       req.Role,
		ChiefdomID: req.ChiefdomId,
		Email:      req.Email,
		Phone:      req.Phone,
	})
	if err != nil {
		return nil, err
	}
	l.Infof("user %s created with role %s", u.Username, u.Role)
	l.svcCtx.AuditEvent(l.ctx, "user.create", "", userTarget(u.ID), map[string]string{"role": u.Role})
	return toUser(u), nil
}
