package logic

import (
	"context"

	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/cuihairu/faultline/services/server/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type FaultUpdateLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewFaultUpdateLogic(ctx context.Context, svcCtx *svc.ServiceContext) *FaultUpdateLogic {
	return &FaultUpdateLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// FaultUpdate merges the payload into the fault. A closed status performs the
// close transition.
func (l *FaultUpdateLogic) FaultUpdate(id uint, p FaultPayload) (*types.FaultMutationResponse, error) {
	in, err := updateInput(p)
	if err != nil {
		return nil, err
	}
	out, err := l.svcCtx.Faults.UpdateFaultFields(l.ctx, id, in)
	if err != nil {
		return nil, err
	}
	if failed := len(out.Images) - out.Ingested; failed > 0 {
		l.Infof("fault %d updated with %d of %d images rejected", id, failed, len(out.Images))
	}
	return toMutation(out), nil
}
