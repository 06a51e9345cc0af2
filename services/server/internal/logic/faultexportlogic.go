package logic

import (
	"bytes"
	"context"
	"time"

	"github.com/cuihairu/faultline/internal/access"
	"github.com/cuihairu/faultline/internal/errs"
	"github.com/cuihairu/faultline/internal/report"
	faultsvc "github.com/cuihairu/faultline/internal/service/faults"
	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/cuihairu/faultline/services/server/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

// ExportFile is a rendered download.
type ExportFile struct {
	Name        string
	ContentType string
	Body        []byte
}

type FaultExportLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewFaultExportLogic(ctx context.Context, svcCtx *svc.ServiceContext) *FaultExportLogic {
	return &FaultExportLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// FaultExport renders the same faults FaultList would return as a workbook.
func (l *FaultExportLogic) FaultExport(req *types.FaultListRequest) (*ExportFile, error) {
	view, err := access.ParseView(req.View)
	if err != nil {
		return nil, err
	}
	list, err := l.svcCtx.Faults.List(l.ctx, faultsvc.ListInput{
		View:         view,
		ChiefdomID:   optID(req.ChiefdomId),
		ReportedByID: optID(req.ReportedById),
		Status:       req.Status,
	})
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := report.WriteFaults(&buf, list); err != nil {
		return nil, errs.Internal(err)
	}
	l.Infof("exported %d faults (view=%s)", len(list), view)
	return &ExportFile{
		Name:        report.Filename(string(view), time.Now()),
		ContentType: report.ContentTypeXLSX,
		Body:        buf.Bytes(),
	}, nil
}
