package activity

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadpilot_backend/internal/leads/domain"
	"leadpilot_backend/internal/leads/repository"
	"leadpilot_backend/platform/apperr"
	"leadpilot_backend/platform/logger"
)

// previewLimit caps how many candidates a prune result carries back to the
// caller. Dry runs on large logs stay cheap to render.
const previewLimit = 10

// Store is the slice of the repository the activity log needs.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	InsertActivity(ctx context.Context, params repository.CreateActivityParams) (repository.Activity, error)
	ListForLead(ctx context.Context, leadID uuid.UUID) ([]repository.Activity, error)
	ListAllActivities(ctx context.Context) ([]repository.Activity, error)
	CountActivities(ctx context.Context) (int, error)
	DeleteActivitiesByIDs(ctx context.Context, ids []uuid.UUID) (int, error)
	DeleteAllActivities(ctx context.Context) (int, error)
}

type Service struct {
	store Store
	log   *logger.Logger
}

func NewService(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// Record appends an activity to a lead's log. Structured payloads are folded
// into the detail text as JSON so the log stays a flat, human-readable trail.
func (s *Service) Record(ctx context.Context, leadID uuid.UUID, actor, action, detail string, payload any) (repository.Activity, error) {
	const op = "activity.Record"

	folded, err := foldDetail(action, detail, payload)
	if err != nil {
		return repository.Activity{}, apperr.Wrap(apperr.KindInternal, "failed to encode activity payload", err).WithOp(op)
	}

	var detailPtr *string
	if folded != "" {
		detailPtr = &folded
	}

	created, err := s.store.InsertActivity(ctx, repository.CreateActivityParams{
		LeadID: leadID,
		Actor:  actor,
		Action: action,
		Detail: detailPtr,
	})
	if err != nil {
		return repository.Activity{}, err
	}
	return created, nil
}

// foldDetail merges a structured payload into the free-text detail. The
// qualification and outreach actions always carry their payload inline, with
// a placeholder when the caller gave no text at all.
func foldDetail(action, detail string, payload any) (string, error) {
	if payload == nil {
		if detail == "" && (action == domain.ActionQualificationCompleted || action == domain.ActionOutreachGenerated) {
			return "No details provided", nil
		}
		return detail, nil
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	if detail == "" {
		return string(encoded), nil
	}
	return detail + " " + string(encoded), nil
}

// ListForLead returns a lead's activities, most recent first. The lead must
// exist so a typo'd id reads as NotFound instead of an empty log.
func (s *Service) ListForLead(ctx context.Context, leadID uuid.UUID) ([]repository.Activity, error) {
	if _, err := s.store.GetByID(ctx, leadID); err != nil {
		return nil, err
	}
	return s.store.ListForLead(ctx, leadID)
}

// PruneResult reports one pruning pass. Deleted is zero on dry runs.
type PruneResult struct {
	Candidates int                   `json:"candidates"`
	Preview    []repository.Activity `json:"preview"`
	Deleted    int                   `json:"deleted"`
	DryRun     bool                  `json:"dry_run"`
}

// PruneByAge removes activities older than the given retention age.
func (s *Service) PruneByAge(ctx context.Context, olderThan time.Duration, dryRun bool) (PruneResult, error) {
	all, err := s.store.ListAllActivities(ctx)
	if err != nil {
		return PruneResult{}, err
	}
	cutoff := time.Now().Add(-olderThan)
	return s.commit(ctx, SelectOlderThan(all, cutoff), dryRun)
}

// PruneByCountPerLead keeps only the keepRecent most recent activities per
// lead and removes the rest.
func (s *Service) PruneByCountPerLead(ctx context.Context, keepRecent int, dryRun bool) (PruneResult, error) {
	all, err := s.store.ListAllActivities(ctx)
	if err != nil {
		return PruneResult{}, err
	}
	return s.commit(ctx, SelectBeyondKeepCount(all, keepRecent), dryRun)
}

// PruneCombined applies both policies over one snapshot and deletes the union
// of their candidates.
func (s *Service) PruneCombined(ctx context.Context, olderThan time.Duration, keepRecent int, dryRun bool) (PruneResult, error) {
	all, err := s.store.ListAllActivities(ctx)
	if err != nil {
		return PruneResult{}, err
	}
	cutoff := time.Now().Add(-olderThan)
	candidates := UnionByID(
		SelectOlderThan(all, cutoff),
		SelectBeyondKeepCount(all, keepRecent),
	)
	return s.commit(ctx, candidates, dryRun)
}

func (s *Service) commit(ctx context.Context, candidates []repository.Activity, dryRun bool) (PruneResult, error) {
	result := PruneResult{
		Candidates: len(candidates),
		DryRun:     dryRun,
	}
	if len(candidates) > previewLimit {
		result.Preview = candidates[:previewLimit]
	} else {
		result.Preview = candidates
	}

	if dryRun || len(candidates) == 0 {
		return result, nil
	}

	deleted, err := s.store.DeleteActivitiesByIDs(ctx, activityIDs(candidates))
	if err != nil {
		return PruneResult{}, err
	}
	result.Deleted = deleted
	s.log.Info("pruned activities", "deleted", deleted, "candidates", len(candidates))
	return result, nil
}

// ClearResult reports a full log wipe.
type ClearResult struct {
	Total   int  `json:"total"`
	Deleted int  `json:"deleted"`
	DryRun  bool `json:"dry_run"`
}

// ClearAll wipes the entire activity log. Dry runs only report the count.
func (s *Service) ClearAll(ctx context.Context, dryRun bool) (ClearResult, error) {
	total, err := s.store.CountActivities(ctx)
	if err != nil {
		return ClearResult{}, err
	}
	result := ClearResult{Total: total, DryRun: dryRun}
	if dryRun {
		return result, nil
	}

	deleted, err := s.store.DeleteAllActivities(ctx)
	if err != nil {
		return ClearResult{}, err
	}
	result.Deleted = deleted
	s.log.Warn("cleared activity log", "deleted", deleted)
	return result, nil
}

// Summary describes the current size of the log for the maintenance CLI.
type Summary struct {
	Total    int            `json:"total"`
	ByAction map[string]int `json:"by_action"`
	Oldest   *time.Time     `json:"oldest,omitempty"`
	Newest   *time.Time     `json:"newest,omitempty"`
}

// Summarize walks the full log and aggregates counts per action plus the age
// range. Intended for operator tooling, not the hot path.
func (s *Service) Summarize(ctx context.Context) (Summary, error) {
	all, err := s.store.ListAllActivities(ctx)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Total:    len(all),
		ByAction: make(map[string]int),
	}
	for _, a := range all {
		summary.ByAction[a.Action]++
		created := a.CreatedAt
		if summary.Oldest == nil || created.Before(*summary.Oldest) {
			t := created
			summary.Oldest = &t
		}
		if summary.Newest == nil || created.After(*summary.Newest) {
			t := created
			summary.Newest = &t
		}
	}
	return summary, nil
}

// FormatActivityLine renders one activity the way the maintenance CLI prints
// previews.
func FormatActivityLine(a repository.Activity) string {
	var b strings.Builder
	b.WriteString(a.CreatedAt.Format(time.RFC3339))
	b.WriteString(" ")
	b.WriteString(a.Actor)
	b.WriteString(" ")
	b.WriteString(a.Action)
	if a.Detail != nil {
		b.WriteString(" ")
		detail := *a.Detail
		if len(detail) > 80 {
			detail = detail[:80] + "..."
		}
		b.WriteString(detail)
	}
	return b.String()
}
