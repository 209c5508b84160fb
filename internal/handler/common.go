package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/band-manager/internal/logger"
	"github.com/iliyamo/band-manager/internal/middleware"
	"github.com/iliyamo/band-manager/internal/model"
	"github.com/iliyamo/band-manager/internal/repository"
	"github.com/iliyamo/band-manager/internal/storage"
)

// dbTimeout bounds the database work of a single request.
const dbTimeout = 5 * time.Second

func dbContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id != 0
}

func invalidID(c echo.Context, name string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + name})
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}

// respondError maps repository, validation and storage errors to a status
// and the {"error": ...} body.  Anything unrecognised is logged and
// reported as 500 with fallback as message.
func respondError(c echo.Context, err error, fallback string) error {
	var fields model.FieldErrors
	switch {
	case errors.As(err, &fields):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrBandMismatch):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrShowNotFound),
		errors.Is(err, repository.ErrPaymentNotFound),
		errors.Is(err, repository.ErrSongNotFound),
		errors.Is(err, repository.ErrSetlistNotFound),
		errors.Is(err, repository.ErrSetlistSongNotFound),
		errors.Is(err, repository.ErrBandNotFound),
		errors.Is(err, repository.ErrMemberNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrTokenInvalid):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	case errors.Is(err, storage.ErrTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": err.Error()})
	case errors.Is(err, storage.ErrUnsupportedImage):
		return c.JSON(http.StatusUnsupportedMediaType, echo.Map{"error": "poster must be a JPEG, PNG, GIF or WebP image"})
	case errors.Is(err, context.DeadlineExceeded):
		logger.FromContext(c).Warn(fallback, zap.Error(err))
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": fallback})
	}
	logger.FromContext(c).Error(fallback, zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
}

// currentUser is the id stored by the JWT middleware.  Routes using it are
// always behind JWTAuth.
func currentUser(c echo.Context) uint64 {
	id, _ := middleware.UserID(c)
	return id
}
