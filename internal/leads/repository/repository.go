package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadpilot_backend/internal/leads/domain"
	"leadpilot_backend/platform/apperr"
)

const leadNotFoundMessage = "lead not found"

const leadColumns = "id, company, name, title, email, phone, website, metadata, score, stage, created_at"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByID retrieves a lead by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	lead, err := scanLead(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return Lead{}, fmt.Errorf("get lead by id: %w", err)
	}

	return lead, nil
}

// List retrieves all leads, newest first.
func (r *Repo) List(ctx context.Context) ([]Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	return scanLeads(rows)
}

// ExistsByCompany checks case-insensitively whether a lead with the given
// company name already exists.
func (r *Repo) ExistsByCompany(ctx context.Context, company string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM leads WHERE LOWER(company) = LOWER($1))`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, company).Scan(&exists); err != nil {
		return false, fmt.Errorf("check lead company exists: %w", err)
	}

	return exists, nil
}

// CountByStage returns the number of leads in each stage that has any.
// Zero-filling of absent stages is the pipeline service's concern.
func (r *Repo) CountByStage(ctx context.Context) (map[string]int, error) {
	query := `SELECT stage, COUNT(*) FROM leads GROUP BY stage`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count leads by stage: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var stage string
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			return nil, fmt.Errorf("scan stage count: %w", err)
		}
		counts[stage] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stage counts: %w", err)
	}

	return counts, nil
}

// Create creates a new lead in the New stage.
func (r *Repo) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	metadataJSON, err := serializeMetadata(params.Metadata)
	if err != nil {
		return Lead{}, fmt.Errorf("serialize lead metadata: %w", err)
	}

	query := `
		INSERT INTO leads (company, name, title, email, phone, website, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + leadColumns

	lead, err := scanLead(r.pool.QueryRow(ctx, query,
		params.Company, params.Name, params.Title, params.Email, params.Phone, params.Website, metadataJSON,
	))
	if err != nil {
		return Lead{}, fmt.Errorf("create lead: %w", err)
	}

	return lead, nil
}

// Update applies a partial update to a lead.
func (r *Repo) Update(ctx context.Context, params UpdateLeadParams) (Lead, error) {
	var metadataJSON *string
	if params.Metadata != nil {
		serialized, err := serializeMetadata(*params.Metadata)
		if err != nil {
			return Lead{}, fmt.Errorf("serialize lead metadata: %w", err)
		}
		metadataJSON = &serialized
	}

	query := `
		UPDATE leads SET
			company = COALESCE($2, company),
			name = COALESCE($3, name),
			title = COALESCE($4, title),
			email = COALESCE($5, email),
			phone = COALESCE($6, phone),
			website = COALESCE($7, website),
			metadata = COALESCE($8::jsonb, metadata),
			stage = COALESCE($9, stage)
		WHERE id = $1
		RETURNING ` + leadColumns

	lead, err := scanLead(r.pool.QueryRow(ctx, query,
		params.ID, params.Company, params.Name, params.Title, params.Email, params.Phone,
		params.Website, metadataJSON, params.Stage,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return Lead{}, fmt.Errorf("update lead: %w", err)
	}

	return lead, nil
}

// UpdateStage writes the lead's stage.
func (r *Repo) UpdateStage(ctx context.Context, id uuid.UUID, stage string) (Lead, error) {
	query := `UPDATE leads SET stage = $2 WHERE id = $1 RETURNING ` + leadColumns

	lead, err := scanLead(r.pool.QueryRow(ctx, query, id, stage))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return Lead{}, fmt.Errorf("update lead stage: %w", err)
	}

	return lead, nil
}

// UpdateScoreAndStage writes the lead's score and stage together. The stage
// column is re-written even when the value is unchanged so that the score
// update path is uniform and auditable.
func (r *Repo) UpdateScoreAndStage(ctx context.Context, id uuid.UUID, score float64, stage string) (Lead, error) {
	query := `UPDATE leads SET score = $2, stage = $3 WHERE id = $1 RETURNING ` + leadColumns

	lead, err := scanLead(r.pool.QueryRow(ctx, query, id, score, stage))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return Lead{}, fmt.Errorf("update lead score and stage: %w", err)
	}

	return lead, nil
}

// Delete removes a lead; its activities cascade at the store level.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMessage)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (Lead, error) {
	var lead Lead
	var metadataRaw []byte

	err := row.Scan(
		&lead.ID, &lead.Company, &lead.Name, &lead.Title, &lead.Email, &lead.Phone,
		&lead.Website, &metadataRaw, &lead.Score, &lead.Stage, &lead.CreatedAt,
	)
	if err != nil {
		return Lead{}, err
	}

	doc, err := domain.ParseDocument(metadataRaw)
	if err != nil {
		return Lead{}, fmt.Errorf("parse lead metadata: %w", err)
	}
	lead.Metadata = doc

	return lead, nil
}

func scanLeads(rows pgx.Rows) ([]Lead, error) {
	var results []Lead

	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		results = append(results, lead)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}

	return results, nil
}

func serializeMetadata(doc domain.Document) (string, error) {
	if doc == nil {
		doc = domain.Document{}
	}
	return doc.Serialize()
}
