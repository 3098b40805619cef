package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/picknic/picknic-backend/internal/service"
)

type PointHandler struct {
	svc service.PointService
}

func NewPointHandler(svc service.PointService) *PointHandler {
	return &PointHandler{svc: svc}
}

type historyEntry struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Points      int64  `json:"points"`
	Timestamp   string `json:"timestamp"`
}

type historyResponse struct {
	CurrentPoints int64          `json:"currentPoints"`
	History       []historyEntry `json:"history"`
}

func (h *PointHandler) History(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	page, err := h.svc.History(c.Request().Context(), uid, offset, limit)
	if err != nil {
		return writeError(c, err)
	}

	entries := make([]historyEntry, 0, len(page.Entries))
	for _, e := range page.Entries {
		entries = append(entries, historyEntry{
			Type:        strings.ToLower(string(e.Type)),
			Description: e.Description,
			Points:      e.Amount,
			Timestamp:   e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, historyResponse{
		CurrentPoints: page.CurrentPoints,
		History:       entries,
	})
}

func (h *PointHandler) CheckIn(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	res, err := h.svc.DailyCheckIn(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"earnedPoints": res.EarnedPoints,
		"totalPoints":  res.CurrentPoints,
	})
}
