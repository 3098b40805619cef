package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/picknic/picknic-backend/internal/apperrors"
)

// writeError maps the engine's error taxonomy onto HTTP statuses. Business
// rejections keep their code so clients can react without string matching.
func writeError(c echo.Context, err error) error {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", err.Error()))
	}

	status := http.StatusInternalServerError
	switch appErr.Code {
	case apperrors.CodeQuotaExceeded:
		status = http.StatusTooManyRequests
	case apperrors.CodeInsufficientPoints:
		status = http.StatusBadRequest
	case apperrors.CodeOutOfStock, apperrors.CodeConcurrencyConflict:
		status = http.StatusConflict
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	case apperrors.CodeDependencyUnavailable:
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, NewErrorResponse(string(appErr.Code), appErr.Message))
}
