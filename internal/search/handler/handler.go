// Package handler maps HTTP requests onto the search service.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadpilot_backend/internal/search/repository"
	"leadpilot_backend/internal/search/service"
	"leadpilot_backend/platform/httpkit"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the search routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/leads", h.SearchLeads)
	rg.GET("/activities", h.SearchActivities)
	rg.GET("/metadata", h.SearchMetadata)
	rg.GET("/suggestions", h.Suggestions)
}

func (h *Handler) SearchLeads(c *gin.Context) {
	query := c.Query("q")
	scope := repository.Scope(c.DefaultQuery("type", string(repository.ScopeAll)))

	results, err := h.svc.SearchLeads(c.Request.Context(), query, scope, limitParam(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, results)
}

func (h *Handler) SearchActivities(c *gin.Context) {
	var leadID *uuid.UUID
	if raw := c.Query("lead_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
			return
		}
		leadID = &parsed
	}

	results, err := h.svc.SearchActivities(c.Request.Context(), c.Query("q"), leadID, limitParam(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, results)
}

func (h *Handler) SearchMetadata(c *gin.Context) {
	results, err := h.svc.SearchMetadata(c.Request.Context(), c.Query("q"), c.Query("field"), limitParam(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, results)
}

func (h *Handler) Suggestions(c *gin.Context) {
	suggestions, err := h.svc.Suggestions(c.Request.Context(), c.Query("q"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, suggestions)
}

func limitParam(c *gin.Context) int {
	raw := c.Query("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return limit
}
