// Package handler maps HTTP requests onto the leads services.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadpilot_backend/internal/leads/activity"
	"leadpilot_backend/internal/leads/pipeline"
	"leadpilot_backend/internal/leads/service"
	"leadpilot_backend/internal/leads/transport"
	"leadpilot_backend/platform/httpkit"
	"leadpilot_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgInvalidLeadID    = "invalid lead id"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for leads, the pipeline and the activity log.
type Handler struct {
	svc        *service.Service
	pipeline   *pipeline.Service
	activities *activity.Service
	val        *validator.Validator
}

// New creates a new leads handler.
func New(svc *service.Service, engine *pipeline.Service, activities *activity.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, pipeline: engine, activities: activities, val: val}
}

// RegisterRoutes registers the lead routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, aiLimited gin.HandlerFunc) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.POST("/qualify", aiLimited, h.Qualify)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.GET("/:id/activities", h.ListActivities)
	rg.POST("/:id/progress", h.ProgressStage)
	rg.POST("/:id/outreach", aiLimited, h.GenerateOutreach)
	rg.POST("/:id/outreach/send", aiLimited, h.SendOutreach)
}

// RegisterPipelineRoutes registers the pipeline overview routes.
func (h *Handler) RegisterPipelineRoutes(rg *gin.RouterGroup) {
	rg.GET("/stages", h.Stages)
	rg.GET("/stats", h.Stats)
	rg.GET("/analytics", h.Analytics)
}

// RegisterAdminRoutes registers the activity retention routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/activities/prune", h.PruneActivities)
	rg.POST("/activities/clear", h.ClearActivities)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), service.CreateLeadInput{
		Company:  req.Company,
		Name:     req.Name,
		Title:    req.Title,
		Email:    req.Email,
		Phone:    req.Phone,
		Website:  req.Website,
		Metadata: req.Metadata,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.FromLead(lead))
}

func (h *Handler) List(c *gin.Context) {
	leads, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromLeads(leads))
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromLead(lead))
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.Update(c.Request.Context(), service.UpdateLeadInput{
		ID:       id,
		Company:  req.Company,
		Name:     req.Name,
		Title:    req.Title,
		Email:    req.Email,
		Phone:    req.Phone,
		Website:  req.Website,
		Metadata: req.Metadata,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromLead(lead))
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "deleted"})
}

func (h *Handler) ListActivities(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	activities, err := h.activities.ListForLead(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromActivities(activities))
}

func (h *Handler) ProgressStage(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.ProgressStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	actor := req.Actor
	if actor == "" {
		actor = "user"
	}

	lead, err := h.pipeline.ProgressStage(c.Request.Context(), id, req.Stage, req.Reason, actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromLead(lead))
}

func (h *Handler) Qualify(c *gin.Context) {
	var req transport.QualifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	outcome, err := h.svc.Qualify(c.Request.Context(), req.LeadID, req.Weights)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.QualifyResponse{
		Lead:          transport.FromLead(outcome.Lead),
		Score:         outcome.Result.Score,
		Justification: outcome.Result.Justification,
		Breakdown:     outcome.Result.Breakdown,
		Reason:        outcome.Reason,
		Moved:         outcome.Moved,
	})
}

func (h *Handler) GenerateOutreach(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	draft, err := h.svc.GenerateOutreach(c.Request.Context(), id, c.Query("tone"), c.Query("goal"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.OutreachResponse{
		LeadID:  id,
		Subject: draft.Subject,
		Body:    draft.Body,
		Tags:    draft.Tags,
	})
}

func (h *Handler) SendOutreach(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	draft, err := h.svc.SendOutreach(c.Request.Context(), id, c.Query("tone"), c.Query("goal"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.OutreachResponse{
		LeadID:  id,
		Subject: draft.Subject,
		Body:    draft.Body,
		Tags:    draft.Tags,
	})
}

func (h *Handler) Stages(c *gin.Context) {
	httpkit.OK(c, h.pipeline.Stages())
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.pipeline.Stats(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, stats)
}

func (h *Handler) Analytics(c *gin.Context) {
	analytics, err := h.pipeline.Analytics(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, analytics)
}

func (h *Handler) PruneActivities(c *gin.Context) {
	var req transport.PruneActivitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	var (
		result activity.PruneResult
		err    error
	)
	ctx := c.Request.Context()
	switch req.Policy {
	case "age":
		if req.OlderThan == nil {
			httpkit.Error(c, http.StatusBadRequest, "older_than_days is required for the age policy", nil)
			return
		}
		result, err = h.activities.PruneByAge(ctx, days(*req.OlderThan), req.DryRun)
	case "count":
		if req.KeepRecent == nil {
			httpkit.Error(c, http.StatusBadRequest, "keep_recent is required for the count policy", nil)
			return
		}
		result, err = h.activities.PruneByCountPerLead(ctx, *req.KeepRecent, req.DryRun)
	case "combined":
		if req.OlderThan == nil || req.KeepRecent == nil {
			httpkit.Error(c, http.StatusBadRequest, "older_than_days and keep_recent are required for the combined policy", nil)
			return
		}
		result, err = h.activities.PruneCombined(ctx, days(*req.OlderThan), *req.KeepRecent, req.DryRun)
	}
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ClearActivities(c *gin.Context) {
	var req transport.ClearActivitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.activities.ClearAll(c.Request.Context(), req.DryRun)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func leadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return uuid.Nil, false
	}
	return id, true
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
