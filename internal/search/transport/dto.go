// Package transport defines the search API shapes.
package transport

import (
	"time"

	"github.com/google/uuid"

	"leadpilot_backend/internal/leads/domain"
)

// LeadResult is a ranked lead search hit.
type LeadResult struct {
	ID             uuid.UUID       `json:"id"`
	Company        string          `json:"company"`
	Name           *string         `json:"name"`
	Title          *string         `json:"title"`
	Email          *string         `json:"email"`
	Phone          *string         `json:"phone"`
	Website        *string         `json:"website"`
	Score          float64         `json:"score"`
	Stage          string          `json:"stage"`
	CreatedAt      time.Time       `json:"created_at"`
	Metadata       domain.Document `json:"metadata"`
	RelevanceScore float64         `json:"relevance_score"`
	MatchType      string          `json:"match_type"`
}

// ActivityResult is a ranked activity search hit. Detail carries the parsed
// payload when the stored detail was JSON, the raw string otherwise.
type ActivityResult struct {
	ID             uuid.UUID `json:"id"`
	LeadID         uuid.UUID `json:"lead_id"`
	LeadCompany    string    `json:"lead_company"`
	Actor          string    `json:"actor"`
	Action         string    `json:"action"`
	Detail         any       `json:"detail"`
	CreatedAt      time.Time `json:"created_at"`
	RelevanceScore float64   `json:"relevance_score"`
	MatchType      string    `json:"match_type"`
}

// MetadataResult is a metadata field hit.
type MetadataResult struct {
	LeadID         uuid.UUID        `json:"lead_id"`
	Company        string           `json:"company"`
	Field          string           `json:"field"`
	Value          domain.MetaValue `json:"value"`
	FullMetadata   domain.Document  `json:"full_metadata"`
	RelevanceScore float64          `json:"relevance_score"`
}

// Suggestions groups autocomplete candidates by origin.
type Suggestions struct {
	Companies  []string `json:"companies"`
	Contacts   []string `json:"contacts"`
	Industries []string `json:"industries"`
	TechStacks []string `json:"tech_stacks"`
}
