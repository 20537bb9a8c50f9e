// Package transport defines the request and response shapes for the leads API.
package transport

import (
	"time"

	"github.com/google/uuid"

	"leadpilot_backend/internal/leads/domain"
	"leadpilot_backend/internal/leads/qualify"
	"leadpilot_backend/internal/leads/repository"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// CreateLeadRequest is the request body for creating a lead.
type CreateLeadRequest struct {
	Company  string          `json:"company" validate:"required,min=1,max=500"`
	Name     *string         `json:"name" validate:"omitempty,max=500"`
	Title    *string         `json:"title" validate:"omitempty,max=500"`
	Email    *string         `json:"email" validate:"omitempty,email"`
	Phone    *string         `json:"phone" validate:"omitempty,max=50"`
	Website  *string         `json:"website" validate:"omitempty,max=1000"`
	Metadata domain.Document `json:"metadata"`
}

// UpdateLeadRequest is the request body for a partial lead update.
// Absent fields are left unchanged.
type UpdateLeadRequest struct {
	Company  *string          `json:"company" validate:"omitempty,min=1,max=500"`
	Name     *string          `json:"name" validate:"omitempty,max=500"`
	Title    *string          `json:"title" validate:"omitempty,max=500"`
	Email    *string          `json:"email" validate:"omitempty,email"`
	Phone    *string          `json:"phone" validate:"omitempty,max=50"`
	Website  *string          `json:"website" validate:"omitempty,max=1000"`
	Metadata *domain.Document `json:"metadata"`
}

// ProgressStageRequest is the request body for a manual stage move.
type ProgressStageRequest struct {
	Stage  string `json:"stage" validate:"required"`
	Reason string `json:"reason" validate:"omitempty,max=1000"`
	Actor  string `json:"actor" validate:"omitempty,max=200"`
}

// QualifyRequest is the request body for running AI qualification.
type QualifyRequest struct {
	LeadID  uuid.UUID       `json:"lead_id" validate:"required"`
	Weights qualify.Weights `json:"scoring_weights" validate:"omitempty,dive,min=0,max=10"`
}

// PruneActivitiesRequest is the admin request for retention pruning.
type PruneActivitiesRequest struct {
	Policy     string `json:"policy" validate:"required,oneof=age count combined"`
	OlderThan  *int   `json:"older_than_days" validate:"omitempty,min=1"`
	KeepRecent *int   `json:"keep_recent" validate:"omitempty,min=0"`
	DryRun     bool   `json:"dry_run"`
}

// ClearActivitiesRequest is the admin request for a full log wipe.
type ClearActivitiesRequest struct {
	DryRun bool `json:"dry_run"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// LeadResponse is the API representation of a lead.
type LeadResponse struct {
	ID        uuid.UUID       `json:"id"`
	Company   string          `json:"company"`
	Name      *string         `json:"name"`
	Title     *string         `json:"title"`
	Email     *string         `json:"email"`
	Phone     *string         `json:"phone"`
	Website   *string         `json:"website"`
	Metadata  domain.Document `json:"metadata"`
	Score     float64         `json:"score"`
	Stage     string          `json:"stage"`
	CreatedAt time.Time       `json:"created_at"`
}

// ActivityResponse is the API representation of an activity log entry.
type ActivityResponse struct {
	ID        uuid.UUID `json:"id"`
	LeadID    uuid.UUID `json:"lead_id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Detail    *string   `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// QualifyResponse reports a qualification run.
type QualifyResponse struct {
	Lead          LeadResponse   `json:"lead"`
	Score         float64        `json:"score"`
	Justification string         `json:"justification"`
	Breakdown     map[string]any `json:"breakdown,omitempty"`
	Reason        string         `json:"reason"`
	Moved         bool           `json:"moved"`
}

// OutreachResponse carries a generated outreach draft.
type OutreachResponse struct {
	LeadID  uuid.UUID `json:"lead_id"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tags    []string  `json:"tags"`
}

// FromLead converts a repository lead to its API shape.
func FromLead(lead repository.Lead) LeadResponse {
	metadata := lead.Metadata
	if metadata == nil {
		metadata = domain.Document{}
	}
	return LeadResponse{
		ID:        lead.ID,
		Company:   lead.Company,
		Name:      lead.Name,
		Title:     lead.Title,
		Email:     lead.Email,
		Phone:     lead.Phone,
		Website:   lead.Website,
		Metadata:  metadata,
		Score:     lead.Score,
		Stage:     lead.Stage,
		CreatedAt: lead.CreatedAt,
	}
}

// FromLeads converts a slice of leads, never returning nil.
func FromLeads(leads []repository.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, FromLead(lead))
	}
	return out
}

// FromActivity converts a repository activity to its API shape.
func FromActivity(a repository.Activity) ActivityResponse {
	return ActivityResponse{
		ID:        a.ID,
		LeadID:    a.LeadID,
		Actor:     a.Actor,
		Action:    a.Action,
		Detail:    a.Detail,
		CreatedAt: a.CreatedAt,
	}
}

// FromActivities converts a slice of activities, never returning nil.
func FromActivities(activities []repository.Activity) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(activities))
	for _, a := range activities {
		out = append(out, FromActivity(a))
	}
	return out
}
