package handlers

import (
	"net/http"

	"saggita/internal/models"

	"github.com/gin-gonic/gin"
)

// GetCatalog returns the public offer: locations, groups with availability,
// weekly slots and price plans
func (h *Handler) GetCatalog(c *gin.Context) {
	catalog, err := h.services.Catalog.Catalog(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalog)
}

// Register is the public intake endpoint
func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	resp, err := h.services.Intake.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// FinalizeAction records the registrant's choice from the confirmation page
func (h *Handler) FinalizeAction(c *gin.Context) {
	var req models.FinalizeActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	resp, err := h.services.Lifecycle.FinalizeAction(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetRegistrationStatus is the public lookup by payment reference
func (h *Handler) GetRegistrationStatus(c *gin.Context) {
	ref := c.Param("ref")
	if ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing payment reference"})
		return
	}

	resp, err := h.services.Lifecycle.Status(c.Request.Context(), ref)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetGroupCapacity reports live occupancy of a group
func (h *Handler) GetGroupCapacity(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.services.Capacity.Evaluate(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
