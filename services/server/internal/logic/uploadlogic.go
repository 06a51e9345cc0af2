package logic

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/cuihairu/faultline/internal/errs"
	"github.com/cuihairu/faultline/internal/ingest"
	"github.com/cuihairu/faultline/internal/platform/objstore"
	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/cuihairu/faultline/services/server/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type UploadLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewUploadLogic(ctx context.Context, svcCtx *svc.ServiceContext) *UploadLogic {
	return &UploadLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// UploadLocation is either a local file to serve or a signed URL to redirect to.
type UploadLocation struct {
	Path     string
	Redirect string
}

func (l *UploadLogic) Locate(req *types.UploadPath) (*UploadLocation, error) {
	key, ok := ingest.KeyFromURL(objstore.PublicPrefix + req.Filename)
	if !ok {
		return nil, errs.NotFound("upload", req.Filename)
	}
	if fs, ok := l.svcCtx.Store.(*objstore.FileStore); ok {
		p := fs.Path(key)
		st, err := os.Stat(p)
		if errors.Is(err, os.ErrNotExist) || (err == nil && st.IsDir()) {
			return nil, errs.NotFound("upload", req.Filename)
		}
		if err != nil {
			return nil, errs.Internal(err)
		}
		return &UploadLocation{Path: p}, nil
	}
	u, err := l.svcCtx.Store.SignedURL(l.ctx, key, http.MethodGet, 0)
	if err != nil {
		return nil, errs.Internal(err)
	}
	return &UploadLocation{Redirect: u}, nil
}
