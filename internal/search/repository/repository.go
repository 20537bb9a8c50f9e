// Package repository fetches search candidates with bounded ILIKE scans.
// Relevance ranking happens in the service layer.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadpilot_backend/internal/leads/domain"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Lead is a search candidate row from the leads table.
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

// Activity is a search candidate row annotated with its lead's company.
type Activity struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	LeadCompany string
	Actor       string
	Action      string
	Detail      *string
	CreatedAt   time.Time
}

const leadColumns = `id, company, name, title, email, phone, website, metadata, score, stage, created_at`

// Scope restricts which lead columns the candidate scan matches against.
type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeCompany  Scope = "company"
	ScopeContact  Scope = "contact"
	ScopeMetadata Scope = "metadata"
)

// KnownScope reports whether the search type is one the API accepts.
func KnownScope(s Scope) bool {
	switch s {
	case ScopeAll, ScopeCompany, ScopeContact, ScopeMetadata:
		return true
	}
	return false
}

// SearchLeads fetches up to limit leads matching the query in the columns the
// scope covers. Matching is case-insensitive substring.
func (r *Repository) SearchLeads(ctx context.Context, query string, scope Scope, limit int) ([]Lead, error) {
	var where string
	switch scope {
	case ScopeCompany:
		where = `company ILIKE $1`
	case ScopeContact:
		where = `name ILIKE $1 OR title ILIKE $1 OR email ILIKE $1`
	case ScopeMetadata:
		where = `metadata::text ILIKE $1`
	default:
		where = `company ILIKE $1 OR name ILIKE $1 OR title ILIKE $1 OR email ILIKE $1 OR metadata::text ILIKE $1`
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE `+where+` LIMIT $2`,
		"%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		var (
			lead Lead
			meta []byte
		)
		if err := rows.Scan(&lead.ID, &lead.Company, &lead.Name, &lead.Title, &lead.Email,
			&lead.Phone, &lead.Website, &meta, &lead.Score, &lead.Stage, &lead.CreatedAt); err != nil {
			return nil, err
		}
		lead.Metadata = parseMetadata(meta)
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// SearchActivities fetches activities whose action, detail or actor matches
// the query, newest first, annotated with the owning lead's company.
func (r *Repository) SearchActivities(ctx context.Context, query string, leadID *uuid.UUID, limit int) ([]Activity, error) {
	sql := `
		SELECT a.id, a.lead_id, COALESCE(l.company, 'Unknown'), a.actor, a.action, a.detail, a.created_at
		FROM lead_activities a
		LEFT JOIN leads l ON l.id = a.lead_id
		WHERE (a.action ILIKE $1 OR a.detail ILIKE $1 OR a.actor ILIKE $1)`
	args := []any{"%" + query + "%"}
	if leadID != nil {
		sql += ` AND a.lead_id = $2 ORDER BY a.created_at DESC LIMIT $3`
		args = append(args, *leadID, limit)
	} else {
		sql += ` ORDER BY a.created_at DESC LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.LeadID, &a.LeadCompany, &a.Actor, &a.Action, &a.Detail, &a.CreatedAt); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// LeadsWithMetadata fetches every lead carrying a non-empty metadata
// document, for the metadata scan and suggestion endpoints.
func (r *Repository) LeadsWithMetadata(ctx context.Context) ([]Lead, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE metadata IS NOT NULL AND metadata::text <> '{}'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		var (
			lead Lead
			meta []byte
		)
		if err := rows.Scan(&lead.ID, &lead.Company, &lead.Name, &lead.Title, &lead.Email,
			&lead.Phone, &lead.Website, &meta, &lead.Score, &lead.Stage, &lead.CreatedAt); err != nil {
			return nil, err
		}
		lead.Metadata = parseMetadata(meta)
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// CompaniesMatching returns distinct company names matching the query.
func (r *Repository) CompaniesMatching(ctx context.Context, query string, limit int) ([]string, error) {
	return r.stringColumn(ctx,
		`SELECT DISTINCT company FROM leads WHERE company ILIKE $1 LIMIT $2`, query, limit)
}

// ContactsMatching returns contact names matching the query, nulls excluded.
func (r *Repository) ContactsMatching(ctx context.Context, query string, limit int) ([]string, error) {
	return r.stringColumn(ctx,
		`SELECT name FROM leads WHERE name IS NOT NULL AND name ILIKE $1 LIMIT $2`, query, limit)
}

func (r *Repository) stringColumn(ctx context.Context, sql, query string, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx, sql, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// parseMetadata tolerates malformed documents; search treats them as empty.
func parseMetadata(raw []byte) domain.Document {
	if len(raw) == 0 {
		return domain.Document{}
	}
	doc, err := domain.ParseDocument(raw)
	if err != nil {
		return domain.Document{}
	}
	return doc
}
