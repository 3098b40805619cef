package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picknic/picknic-backend/internal/event"
)

func newVoteEventContext(t *testing.T, uid, voteID, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/votes/"+voteID+"/events", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(voteID)
	if uid != "" {
		c.Set("uid", uid)
	}
	return c, rec
}

func TestVoteEventHandler_PublishAccepted(t *testing.T) {
	d := event.NewDispatcher(1, 10)
	d.Start()
	defer d.Stop()
	h := NewVoteEventHandler(d)

	c, rec := newVoteEventContext(t, "u1", "42", `{"action":"vote","amount":1,"schoolName":"Seoul High School"}`)
	require.NoError(t, h.Publish(c))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "eventId")
}

func TestVoteEventHandler_PublishValidation(t *testing.T) {
	d := event.NewDispatcher(1, 10)
	d.Start()
	defer d.Stop()
	h := NewVoteEventHandler(d)

	tests := []struct {
		name string
		uid  string
		body string
		want int
	}{
		{"missing uid", "", `{"action":"vote","amount":1}`, http.StatusUnauthorized},
		{"unknown action", "u1", `{"action":"delete","amount":1}`, http.StatusBadRequest},
		{"zero amount", "u1", `{"action":"vote","amount":0}`, http.StatusBadRequest},
		{"negative amount", "u1", `{"action":"vote","amount":-3}`, http.StatusBadRequest},
		{"malformed json", "u1", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newVoteEventContext(t, tt.uid, "42", tt.body)
			require.NoError(t, h.Publish(c))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestVoteEventHandler_PublishSaturated(t *testing.T) {
	// Unstarted dispatcher with a single slot: the second publish finds the
	// queue full and the handler converts the drop into a 503.
	d := event.NewDispatcher(1, 1)
	h := NewVoteEventHandler(d)

	c, rec := newVoteEventContext(t, "u1", "42", `{"action":"vote","amount":1}`)
	require.NoError(t, h.Publish(c))
	require.Equal(t, http.StatusAccepted, rec.Code)

	c, rec = newVoteEventContext(t, "u1", "43", `{"action":"vote","amount":1}`)
	require.NoError(t, h.Publish(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestVoteEventHandler_Promote(t *testing.T) {
	d := event.NewDispatcher(1, 10)
	d.Start()
	defer d.Stop()
	h := NewVoteEventHandler(d)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/votes/42/promote",
		strings.NewReader(`{"title":"Best school lunch","category":"food","marked":true}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("42")

	require.NoError(t, h.Promote(c))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}
