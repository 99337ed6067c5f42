package handlers

import (
	"net/http"

	"saggita/internal/middleware"
	"saggita/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateSession resolves or creates the canonical session of a group on a
// date and seeds the legacy roster
func (h *Handler) CreateSession(c *gin.Context) {
	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	resp, err := h.services.Sessions.CreateSession(c.Request.Context(), middleware.StaffFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetSessionAttendance returns the legacy roster marks and the admitted web
// registrations of a session
func (h *Handler) GetSessionAttendance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := h.services.Sessions.SessionAttendance(c.Request.Context(), middleware.StaffFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecordAttendance applies a bulk attendance submission to a session
func (h *Handler) RecordAttendance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.RecordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	resp, err := h.services.Sessions.RecordAttendance(c.Request.Context(), middleware.StaffFrom(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListGroupSessions returns recent session summaries of a group
func (h *Handler) ListGroupSessions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	sessions, err := h.services.Sessions.ListGroupSessions(c.Request.Context(), middleware.StaffFrom(c), id, queryInt(c, "limit", 20))
	if err != nil {
		respondError(c, err)
		return
	}
	if sessions == nil {
		sessions = []models.SessionSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
