package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const activityColumns = "id, lead_id, actor, action, detail, created_at"

// InsertActivity appends one activity row. The referenced lead must exist;
// the store enforces the foreign key.
func (r *Repo) InsertActivity(ctx context.Context, params CreateActivityParams) (Activity, error) {
	query := `
		INSERT INTO lead_activities (lead_id, actor, action, detail)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + activityColumns

	activity, err := scanActivity(r.pool.QueryRow(ctx, query,
		params.LeadID, params.Actor, params.Action, params.Detail,
	))
	if err != nil {
		return Activity{}, fmt.Errorf("insert activity: %w", err)
	}

	return activity, nil
}

// ListForLead retrieves all activities for a lead, most recent first.
func (r *Repo) ListForLead(ctx context.Context, leadID uuid.UUID) ([]Activity, error) {
	query := `SELECT ` + activityColumns + `
		FROM lead_activities
		WHERE lead_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("list activities for lead: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// ListRecent retrieves the most recent activities across all leads.
func (r *Repo) ListRecent(ctx context.Context, limit int) ([]Activity, error) {
	query := `SELECT ` + activityColumns + `
		FROM lead_activities
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent activities: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// ListAllActivities retrieves every activity, grouped by lead and ordered
// most recent first within each lead, which is the shape the retention
// selection helpers expect.
func (r *Repo) ListAllActivities(ctx context.Context) ([]Activity, error) {
	query := `SELECT ` + activityColumns + `
		FROM lead_activities
		ORDER BY lead_id, created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all activities: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// CountActivities returns the total number of stored activities.
func (r *Repo) CountActivities(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lead_activities`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count activities: %w", err)
	}
	return count, nil
}

// DeleteActivitiesByIDs removes the given activities and reports how many
// rows were actually deleted.
func (r *Repo) DeleteActivitiesByIDs(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := r.pool.Exec(ctx, `DELETE FROM lead_activities WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete activities: %w", err)
	}

	return int(result.RowsAffected()), nil
}

// DeleteAllActivities clears the activity log entirely.
func (r *Repo) DeleteAllActivities(ctx context.Context) (int, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM lead_activities`)
	if err != nil {
		return 0, fmt.Errorf("delete all activities: %w", err)
	}

	return int(result.RowsAffected()), nil
}

func scanActivity(row rowScanner) (Activity, error) {
	var activity Activity
	err := row.Scan(
		&activity.ID, &activity.LeadID, &activity.Actor, &activity.Action,
		&activity.Detail, &activity.CreatedAt,
	)
	if err != nil {
		return Activity{}, err
	}
	return activity, nil
}

func scanActivities(rows pgx.Rows) ([]Activity, error) {
	var results []Activity

	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		results = append(results, activity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}

	return results, nil
}
