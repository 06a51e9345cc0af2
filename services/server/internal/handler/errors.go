package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/cuihairu/faultline/internal/errs"
	"github.com/cuihairu/faultline/services/server/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
)

// ErrorHandler renders every error as {"code","message"}. Internal errors are
// logged and their details withheld.
func ErrorHandler(ctx context.Context, err error) (int, any) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logx.WithContext(ctx).Errorf("request failed: %v", err)
	}
	return status, types.ErrorResponse{Code: status, Message: errs.PublicMessage(err)}
}

// badRequest classifies request decoding failures.
func badRequest(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errs.Validation("request body exceeds %d bytes", tooLarge.Limit)
	}
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	return errs.Validation("%v", err)
}
