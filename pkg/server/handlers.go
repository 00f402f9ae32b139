package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/facilita/facil-cli/client"
	fcerrors "github.com/facilita/facil-cli/pkg/errors"
	"github.com/facilita/facil-cli/pkg/logging"
	"github.com/facilita/facil-cli/pkg/store"
)

// Handler serves the dashboard's document-store routes.
type Handler struct {
	store *store.Store
	log   logging.Logger

	// now is swappable for tests; defaults to time.Now.
	now func() time.Time
}

// Register attaches all routes to the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/api/agendas", h.ListAgendas)
	e.GET("/api/agendas/:id", h.GetAgenda)
	e.PUT("/api/agendas/:id", h.UpdateAgenda)
	e.POST("/api/accepted-agenda", h.AcceptAgenda)
	e.POST("/api/meetings", h.SaveMeeting)
	e.GET("/api/meetings", h.ListMeetings)
	e.GET("/api/stats/engagement", h.EngagementStats)
	e.GET("/api/stats/meetings", h.MeetingsStats)
}

func (h *Handler) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

// ListAgendas returns all agendas, newest first.
// GET /api/agendas
func (h *Handler) ListAgendas(c echo.Context) error {
	agendas, err := h.store.ListAgendas()
	if err != nil {
		h.log.Error("listing agendas failed", logging.Err(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch agendas"})
	}
	return c.JSON(http.StatusOK, agendas)
}

// GetAgenda returns one agenda document.
// GET /api/agendas/:id
func (h *Handler) GetAgenda(c echo.Context) error {
	agenda, err := h.store.GetAgenda(c.Param("id"))
	if err != nil {
		if errors.Is(err, fcerrors.ErrNotFound) || errors.Is(err, fcerrors.ErrValidation) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Agenda not found"})
		}
		h.log.Error("reading agenda failed", logging.F("id", c.Param("id")), logging.Err(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch agenda"})
	}
	return c.JSON(http.StatusOK, agenda)
}

// UpdateAgenda merges the submitted fields into an agenda document.
// PUT /api/agendas/:id
func (h *Handler) UpdateAgenda(c echo.Context) error {
	var update store.AgendaUpdate
	if err := c.Bind(&update); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	agenda, err := h.store.UpdateAgenda(c.Param("id"), update)
	if err != nil {
		if errors.Is(err, fcerrors.ErrNotFound) || errors.Is(err, fcerrors.ErrValidation) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Agenda not found"})
		}
		h.log.Error("updating agenda failed", logging.F("id", c.Param("id")), logging.Err(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to update agenda"})
	}
	return c.JSON(http.StatusOK, agenda)
}

// acceptedAgendaRequest is a generated draft plus the title it was
// accepted under.
type acceptedAgendaRequest struct {
	Title string `json:"title"`
	client.AgendaDraft
	Attachments []string `json:"attachments,omitempty"`
}

// AcceptAgenda persists a generated draft as a stored agenda document.
// POST /api/accepted-agenda
func (h *Handler) AcceptAgenda(c echo.Context) error {
	var req acceptedAgendaRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing agenda data"})
	}

	doc := req.AgendaDraft.ToDocument(req.Title)
	doc.Attachments = req.Attachments

	id, err := h.store.SaveAgenda(doc, h.clock())
	if err != nil {
		h.log.Error("saving accepted agenda failed", logging.Err(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save agenda"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"id":       id,
		"filename": id + ".json",
	})
}

// saveMeetingRequest wraps a meeting document with its timestamp id.
type saveMeetingRequest struct {
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// SaveMeeting stores a finished meeting document under its timestamp.
// POST /api/meetings
func (h *Handler) SaveMeeting(c echo.Context) error {
	var req saveMeetingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"success": false, "message": "invalid request body"})
	}

	if err := h.store.SaveMeetingDocument(req.Timestamp, req.Data); err != nil {
		if errors.Is(err, fcerrors.ErrValidation) {
			return c.JSON(http.StatusBadRequest, map[string]interface{}{"success": false, "message": "invalid timestamp"})
		}
		h.log.Error("saving meeting failed", logging.F("timestamp", req.Timestamp), logging.Err(err))
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"success": false, "message": "Failed to save meeting data"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "message": "Meeting data saved successfully"})
}

// ListMeetings returns all stored meeting snapshots, newest first.
// GET /api/meetings
func (h *Handler) ListMeetings(c echo.Context) error {
	meetings, err := h.store.ListMeetings()
	if err != nil {
		h.log.Error("listing meetings failed", logging.Err(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch meetings"})
	}
	return c.JSON(http.StatusOK, meetings)
}

// EngagementStats returns the engagement trend chart data.
// GET /api/stats/engagement
func (h *Handler) EngagementStats(c echo.Context) error {
	points, err := h.store.EngagementStats()
	if err != nil {
		h.log.Error("reading engagement stats failed", logging.Err(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch stats"})
	}
	return c.JSON(http.StatusOK, points)
}

// MeetingsStats returns the meetings-per-month chart data.
// GET /api/stats/meetings
func (h *Handler) MeetingsStats(c echo.Context) error {
	months, err := h.store.MeetingsStats()
	if err != nil {
		h.log.Error("reading meetings stats failed", logging.Err(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch stats"})
	}
	return c.JSON(http.StatusOK, months)
}
