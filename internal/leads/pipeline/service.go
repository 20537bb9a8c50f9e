// Package pipeline implements the stage state machine for leads, including
// score-driven auto-progression and pipeline-wide statistics.
package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"leadpilot_backend/internal/events"
	"leadpilot_backend/internal/leads/domain"
	"leadpilot_backend/internal/leads/repository"
	"leadpilot_backend/platform/apperr"
	"leadpilot_backend/platform/logger"
)

// Auto-progression score bands.
const (
	highScoreThreshold = 80
	goodScoreThreshold = 60
)

// Store is the slice of the repository the pipeline engine needs.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	UpdateStage(ctx context.Context, id uuid.UUID, stage string) (repository.Lead, error)
	UpdateScoreAndStage(ctx context.Context, id uuid.UUID, score float64, stage string) (repository.Lead, error)
	CountByStage(ctx context.Context) (map[string]int, error)
	ListRecent(ctx context.Context, limit int) ([]repository.Activity, error)
}

// Recorder appends to the activity log.
type Recorder interface {
	Record(ctx context.Context, leadID uuid.UUID, actor, action, detail string, payload any) (repository.Activity, error)
}

type Service struct {
	store    Store
	recorder Recorder
	bus      events.Bus
	log      *logger.Logger
}

func NewService(store Store, recorder Recorder, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, recorder: recorder, bus: bus, log: log}
}

// ProgressStage moves a lead to a new stage. Moving to the current stage is a
// no-op that returns the lead unchanged. The stage change is appended to the
// activity log, but a log failure never rolls back the move.
func (s *Service) ProgressStage(ctx context.Context, leadID uuid.UUID, newStage, reason, actor string) (repository.Lead, error) {
	const op = "pipeline.ProgressStage"

	if !domain.IsKnownStage(newStage) {
		return repository.Lead{}, apperr.Validation(fmt.Sprintf("unknown stage %q", newStage)).WithOp(op)
	}

	lead, err := s.store.GetByID(ctx, leadID)
	if err != nil {
		return repository.Lead{}, err
	}
	if lead.Stage == newStage {
		return lead, nil
	}

	oldStage := lead.Stage
	updated, err := s.store.UpdateStage(ctx, leadID, newStage)
	if err != nil {
		return repository.Lead{}, err
	}

	detail := fmt.Sprintf("Stage changed from %s to %s", oldStage, newStage)
	if reason != "" {
		detail += " - " + reason
	}
	if _, err := s.recorder.Record(ctx, leadID, actor, domain.ActionStageProgression, detail, nil); err != nil {
		s.log.ActivityLogFailure(leadID.String(), domain.ActionStageProgression, err)
	}

	s.bus.Publish(ctx, events.LeadStageChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		OldStage:  oldStage,
		NewStage:  newStage,
		Actor:     actor,
	})

	return updated, nil
}

// AutoProgressResult reports what auto-progression did with a score.
type AutoProgressResult struct {
	Lead   repository.Lead
	Reason string
	Moved  bool
}

// AutoProgressAfterQualification persists a qualification score and moves the
// lead according to the score band. Scores below the good threshold send the
// lead back to New; the score is stored regardless.
func (s *Service) AutoProgressAfterQualification(ctx context.Context, leadID uuid.UUID, score float64) (AutoProgressResult, error) {
	lead, err := s.store.GetByID(ctx, leadID)
	if err != nil {
		return AutoProgressResult{}, err
	}

	target, reason := bandForScore(score)

	updated, err := s.store.UpdateScoreAndStage(ctx, leadID, score, lead.Stage)
	if err != nil {
		return AutoProgressResult{}, err
	}

	result := AutoProgressResult{Lead: updated, Reason: reason}
	if target == lead.Stage {
		return result, nil
	}

	moved, err := s.ProgressStage(ctx, leadID, target, reason, domain.ActorSystem)
	if err != nil {
		return AutoProgressResult{}, err
	}
	result.Lead = moved
	result.Moved = true
	return result, nil
}

// bandForScore maps a score to its target stage and the reason text recorded
// with the move. Low scores target New, which demotes leads that had already
// advanced.
func bandForScore(score float64) (stage, reason string) {
	switch {
	case score >= highScoreThreshold:
		return domain.StageQualified, fmt.Sprintf("High qualification score (%v) - auto-progressed to Qualified", score)
	case score >= goodScoreThreshold:
		return domain.StageQualified, fmt.Sprintf("Good qualification score (%v) - auto-progressed to Qualified", score)
	default:
		return domain.StageNew, fmt.Sprintf("Low qualification score (%v) - kept at New stage", score)
	}
}

// StageInfo describes a pipeline stage for API consumers.
type StageInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Stages returns the six pipeline stages in display order.
func (s *Service) Stages() []StageInfo {
	out := make([]StageInfo, 0, len(domain.AllStages))
	for _, stage := range domain.AllStages {
		out = append(out, StageInfo{Name: stage, Description: domain.StageDescription(stage)})
	}
	return out
}

// Stats holds per-stage lead counts. Every stage is present even when empty.
type Stats struct {
	Total   int            `json:"total"`
	ByStage map[string]int `json:"by_stage"`
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	counts, err := s.store.CountByStage(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{ByStage: make(map[string]int, len(domain.AllStages))}
	for _, stage := range domain.AllStages {
		stats.ByStage[stage] = counts[stage]
		stats.Total += counts[stage]
	}
	return stats, nil
}

// Analytics summarizes the pipeline for the dashboard. The conversion rate is
// won over closed (won plus lost) as a percentage, zero when nothing closed.
type Analytics struct {
	TotalLeads       int                   `json:"total_leads"`
	ByStage          map[string]int        `json:"by_stage"`
	WonCount         int                   `json:"won_count"`
	LostCount        int                   `json:"lost_count"`
	ConversionRate   float64               `json:"conversion_rate"`
	RecentActivities []repository.Activity `json:"recent_activities"`
}

func (s *Service) Analytics(ctx context.Context) (Analytics, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return Analytics{}, err
	}

	recent, err := s.store.ListRecent(ctx, 10)
	if err != nil {
		return Analytics{}, err
	}

	won := stats.ByStage[domain.StageWon]
	lost := stats.ByStage[domain.StageLost]
	var rate float64
	if won+lost > 0 {
		rate = math.Round(float64(won)/float64(won+lost)*100*100) / 100
	}

	return Analytics{
		TotalLeads:       stats.Total,
		ByStage:          stats.ByStage,
		WonCount:         won,
		LostCount:        lost,
		ConversionRate:   rate,
		RecentActivities: recent,
	}, nil
}
