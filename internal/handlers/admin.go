package handlers

import (
	"net/http"

	"saggita/internal/models"

	"github.com/gin-gonic/gin"
)

// ListGroups is the admin group listing with live occupant counts
func (h *Handler) ListGroups(c *gin.Context) {
	activeOnly := c.DefaultQuery("active", "true") != "false"
	groups, err := h.services.Capacity.ListGroups(c.Request.Context(), activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// ListRegistrations filters registrations by group and status
func (h *Handler) ListRegistrations(c *gin.Context) {
	regs, err := h.services.Lifecycle.List(c.Request.Context(),
		queryInt64(c, "group_id"),
		c.Query("status"),
		queryInt(c, "limit", 50),
		queryInt(c, "offset", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	if regs == nil {
		regs = []models.Registration{}
	}
	c.JSON(http.StatusOK, gin.H{"registrations": regs})
}

func (h *Handler) GetRegistration(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	reg, err := h.services.Lifecycle.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reg)
}

// UpdateRegistration applies an administrative patch; clearing the waitlist
// flag promotes through the capacity re-check
func (h *Handler) UpdateRegistration(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	reg, err := h.services.Lifecycle.AdminUpdate(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reg)
}

// ListRoster is the unified roster listing
func (h *Handler) ListRoster(c *gin.Context) {
	var isActive *bool
	if raw := c.Query("is_active"); raw != "" {
		v := raw == "true"
		isActive = &v
	}

	filters := models.RosterFilters{
		Search:        c.Query("search"),
		Source:        c.Query("source"),
		GroupID:       queryInt64(c, "group_id"),
		City:          c.Query("city"),
		PaymentStatus: c.Query("payment_status"),
		IsActive:      isActive,
		Overdue:       c.Query("overdue") == "true",
		SeasonOnly:    c.Query("season_only") == "true",
		Sort:          c.Query("sort"),
		Page:          queryInt(c, "page", 1),
		Limit:         queryInt(c, "limit", 50),
	}

	page, err := h.services.Roster.List(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) GetStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.services.Roster.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) CreateStudent(c *gin.Context) {
	var req models.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	student, err := h.services.Roster.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

func (h *Handler) UpdateStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	student, err := h.services.Roster.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

// DeleteStudent removes a roster entry, falling back to deactivation when
// history exists
func (h *Handler) DeleteStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.services.Roster.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LegacyHistory lists legacy students with lifetime aggregates
func (h *Handler) LegacyHistory(c *gin.Context) {
	rows, total, err := h.services.Roster.LegacyHistory(c.Request.Context(),
		c.Query("search"),
		queryInt64(c, "group_id"),
		queryInt(c, "limit", 50),
		queryInt(c, "offset", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows, "total": total})
}

func (h *Handler) StudentAttendanceHistory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rows, err := h.services.Roster.AttendanceHistory(c.Request.Context(), id, queryInt(c, "limit", 100))
	if err != nil {
		respondError(c, err)
		return
	}
	if rows == nil {
		rows = []models.AttendanceHistoryRow{}
	}
	c.JSON(http.StatusOK, gin.H{"attendances": rows})
}

// CorrectAttendance fixes a single historical attendance mark
func (h *Handler) CorrectAttendance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Present *bool `json:"present"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Present == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "present is required"})
		return
	}
	if err := h.services.Roster.CorrectAttendance(c.Request.Context(), id, *req.Present); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) StudentPayments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	payments, err := h.services.Roster.Payments(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

func (h *Handler) AddStudentPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	payment, err := h.services.Roster.AddPayment(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (h *Handler) UpdatePayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.services.Roster.UpdatePayment(c.Request.Context(), id, &req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) DeletePayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.services.Roster.DeletePayment(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// InvalidateCatalog drops the cached public catalog after offer changes
func (h *Handler) InvalidateCatalog(c *gin.Context) {
	h.services.Catalog.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": true})
}
