package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/picknic/picknic-backend/internal/apperrors"
	"github.com/picknic/picknic-backend/internal/repository"
	"github.com/picknic/picknic-backend/internal/service"
)

type RankingHandler struct {
	svc   service.RankingService
	users repository.UserRepository
}

func NewRankingHandler(svc service.RankingService, users repository.UserRepository) *RankingHandler {
	return &RankingHandler{svc: svc, users: users}
}

func (h *RankingHandler) Personal(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	res, err := h.svc.PersonalRanking(c.Request().Context(), uid, offset, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *RankingHandler) Schools(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	source := service.SourceCache
	if c.QueryParam("source") == string(service.SourceDurable) {
		source = service.SourceDurable
	}

	school := ""
	if u, err := h.users.FindByUserID(c.Request().Context(), uid); err == nil {
		school = u.SchoolName
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", err.Error()))
	}

	res, err := h.svc.SchoolRanking(c.Request().Context(), school, source, offset, limit)
	if err != nil && source == service.SourceCache && errors.Is(err, apperrors.ErrDependencyUnavailable) {
		// Cache down: recompute the whole list from the durable store rather
		// than serve a partial ranking.
		log.WithError(err).Warn("school leaderboard cache unavailable, recomputing from durable store")
		res, err = h.svc.SchoolRanking(c.Request().Context(), school, service.SourceDurable, offset, limit)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
