package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/picknic/picknic-backend/internal/event"
	"github.com/picknic/picknic-backend/internal/model"
)

// VoteEventHandler is the ingestion edge for the vote module. The engine
// does not verify that the referenced vote exists; it credits what it is
// told happened, asynchronously.
type VoteEventHandler struct {
	dispatcher *event.Dispatcher
}

func NewVoteEventHandler(dispatcher *event.Dispatcher) *VoteEventHandler {
	return &VoteEventHandler{dispatcher: dispatcher}
}

type voteEventRequest struct {
	Action     string `json:"action"` // "vote" | "create"
	Amount     int64  `json:"amount"`
	SchoolName string `json:"schoolName"`
}

func (h *VoteEventHandler) Publish(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	voteID := c.Param("id")
	if voteID == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "missing vote id"))
	}

	var req voteEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}

	var typ model.PointType
	switch req.Action {
	case "vote":
		typ = model.PointTypeVote
	case "create":
		typ = model.PointTypeCreate
	default:
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "action must be vote or create"))
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "amount must be positive"))
	}

	ev := event.NewPointEvent(uid, typ, req.Amount, req.SchoolName, req.Action+":"+voteID+":"+uid)
	if !h.dispatcher.Publish(ev) {
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("queue_saturated", "try again shortly"))
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted", "eventId": ev.EventID})
}

type promotionRequest struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Marked   bool   `json:"marked"`
}

func (h *VoteEventHandler) Promote(c echo.Context) error {
	voteID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid vote id"))
	}
	var req promotionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}

	ev := event.NewPromotionEvent(voteID, req.Title, req.Category, req.Marked)
	if !h.dispatcher.Publish(ev) {
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("queue_saturated", "try again shortly"))
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted", "eventId": ev.EventID})
}
