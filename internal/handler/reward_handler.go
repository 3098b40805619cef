package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/picknic/picknic-backend/internal/repository"
	"github.com/picknic/picknic-backend/internal/service"
)

type RewardHandler struct {
	points  service.PointService
	rewards repository.RewardRepository
}

func NewRewardHandler(points service.PointService, rewards repository.RewardRepository) *RewardHandler {
	return &RewardHandler{points: points, rewards: rewards}
}

type rewardItem struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Cost        int64  `json:"cost"`
	Stock       int    `json:"stock"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

func (h *RewardHandler) List(c echo.Context) error {
	list, err := h.rewards.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", err.Error()))
	}
	items := make([]rewardItem, 0, len(list))
	for _, rw := range list {
		items = append(items, rewardItem{
			ID:          rw.ID,
			Name:        rw.Name,
			Description: rw.Description,
			Cost:        rw.Cost,
			Stock:       rw.Stock,
			ImageURL:    rw.ImageURL,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"rewards": items})
}

func (h *RewardHandler) Redeem(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	rewardID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid reward id"))
	}
	if err := h.points.Redeem(c.Request().Context(), uid, rewardID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "redeemed"})
}
