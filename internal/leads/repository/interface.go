package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"leadpilot_backend/internal/leads/domain"
)

// Lead is a prospective customer record tracked through the pipeline.
type Lead struct {
	ID        uuid.UUID
	Company   string
	Name      *string
	Title     *string
	Email     *string
	Phone     *string
	Website   *string
	Metadata  domain.Document
	Score     float64
	Stage     string
	CreatedAt time.Time
}

// Activity is an immutable audit record of an event affecting a lead.
// Rows are created once and never updated; only retention pruning deletes them.
type Activity struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	Actor     string
	Action    string
	Detail    *string
	CreatedAt time.Time
}

// CreateLeadParams contains parameters for creating a lead.
type CreateLeadParams struct {
	Company  string
	Name     *string
	Title    *string
	Email    *string
	Phone    *string
	Website  *string
	Metadata domain.Document
}

// UpdateLeadParams contains parameters for a partial lead update.
// Nil fields are left unchanged.
type UpdateLeadParams struct {
	ID       uuid.UUID
	Company  *string
	Name     *string
	Title    *string
	Email    *string
	Phone    *string
	Website  *string
	Metadata *domain.Document
	Stage    *string
}

// CreateActivityParams contains parameters for appending an activity.
type CreateActivityParams struct {
	LeadID uuid.UUID
	Actor  string
	Action string
	Detail *string
}

// LeadReader provides read operations for leads.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	List(ctx context.Context) ([]Lead, error)
	ExistsByCompany(ctx context.Context, company string) (bool, error)
	CountByStage(ctx context.Context) (map[string]int, error)
}

// LeadWriter provides write operations for leads.
type LeadWriter interface {
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
	Update(ctx context.Context, params UpdateLeadParams) (Lead, error)
	UpdateStage(ctx context.Context, id uuid.UUID, stage string) (Lead, error)
	UpdateScoreAndStage(ctx context.Context, id uuid.UUID, score float64, stage string) (Lead, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ActivityReader provides read operations for the activity log.
type ActivityReader interface {
	ListForLead(ctx context.Context, leadID uuid.UUID) ([]Activity, error)
	ListRecent(ctx context.Context, limit int) ([]Activity, error)
	ListAllActivities(ctx context.Context) ([]Activity, error)
	CountActivities(ctx context.Context) (int, error)
}

// ActivityWriter provides append and pruning-commit operations for the
// activity log. There is intentionally no update operation.
type ActivityWriter interface {
	InsertActivity(ctx context.Context, params CreateActivityParams) (Activity, error)
	DeleteActivitiesByIDs(ctx context.Context, ids []uuid.UUID) (int, error)
	DeleteAllActivities(ctx context.Context) (int, error)
}

// Repository combines all lead and activity repository operations.
type Repository interface {
	LeadReader
	LeadWriter
	ActivityReader
	ActivityWriter
}
