package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"leadpilot_backend/internal/leads/domain"
	"leadpilot_backend/internal/leads/repository"
	"leadpilot_backend/platform/apperr"
	"leadpilot_backend/platform/events"
	"leadpilot_backend/platform/logger"
)

type fakeStore struct {
	leads   map[uuid.UUID]*repository.Lead
	recent  []repository.Activity
	counted map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{leads: make(map[uuid.UUID]*repository.Lead)}
}

func (f *fakeStore) add(stage string, score float64) uuid.UUID {
	id := uuid.New()
	f.leads[id] = &repository.Lead{ID: id, Company: "Acme", Stage: stage, Score: score}
	return id
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	l, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	return *l, nil
}

func (f *fakeStore) UpdateStage(ctx context.Context, id uuid.UUID, stage string) (repository.Lead, error) {
	l, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	l.Stage = stage
	return *l, nil
}

func (f *fakeStore) UpdateScoreAndStage(ctx context.Context, id uuid.UUID, score float64, stage string) (repository.Lead, error) {
	l, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	l.Score = score
	l.Stage = stage
	return *l, nil
}

func (f *fakeStore) CountByStage(ctx context.Context) (map[string]int, error) {
	if f.counted != nil {
		return f.counted, nil
	}
	counts := make(map[string]int)
	for _, l := range f.leads {
		counts[l.Stage]++
	}
	return counts, nil
}

func (f *fakeStore) ListRecent(ctx context.Context, limit int) ([]repository.Activity, error) {
	if len(f.recent) > limit {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

type fakeRecorder struct {
	records []string
	fail    error
}

func (f *fakeRecorder) Record(ctx context.Context, leadID uuid.UUID, actor, action, detail string, payload any) (repository.Activity, error) {
	if f.fail != nil {
		return repository.Activity{}, f.fail
	}
	f.records = append(f.records, action+": "+detail)
	return repository.Activity{ID: uuid.New(), LeadID: leadID, Actor: actor, Action: action}, nil
}

func testService(store *fakeStore, rec *fakeRecorder) *Service {
	log := logger.New("test")
	return NewService(store, rec, events.NewInMemoryBus(log), log)
}

func TestProgressStageRecordsActivity(t *testing.T) {
	store := newFakeStore()
	rec := &fakeRecorder{}
	svc := testService(store, rec)
	id := store.add(domain.StageNew, 0)

	lead, err := svc.ProgressStage(context.Background(), id, domain.StageContacted, "intro call booked", "alice")
	if err != nil {
		t.Fatalf("ProgressStage: %v", err)
	}
	if lead.Stage != domain.StageContacted {
		t.Fatalf("expected stage Contacted, got %s", lead.Stage)
	}
	if len(rec.records) != 1 {
		t.Fatalf("expected 1 activity, got %d", len(rec.records))
	}
	want := "stage_progression: Stage changed from New to Contacted - intro call booked"
	if rec.records[0] != want {
		t.Fatalf("unexpected activity %q", rec.records[0])
	}
}

func TestProgressStageSameStageIsNoOp(t *testing.T) {
	store := newFakeStore()
	rec := &fakeRecorder{}
	svc := testService(store, rec)
	id := store.add(domain.StageQualified, 70)

	lead, err := svc.ProgressStage(context.Background(), id, domain.StageQualified, "", "alice")
	if err != nil {
		t.Fatalf("ProgressStage: %v", err)
	}
	if lead.Stage != domain.StageQualified {
		t.Fatalf("stage changed on no-op: %s", lead.Stage)
	}
	if len(rec.records) != 0 {
		t.Fatalf("no-op must not log an activity")
	}
}

func TestProgressStageUnknownStage(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, &fakeRecorder{})
	id := store.add(domain.StageNew, 0)

	_, err := svc.ProgressStage(context.Background(), id, "Negotiation", "", "alice")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProgressStageSurvivesLogFailure(t *testing.T) {
	store := newFakeStore()
	rec := &fakeRecorder{fail: apperr.Internal("log down")}
	svc := testService(store, rec)
	id := store.add(domain.StageNew, 0)

	lead, err := svc.ProgressStage(context.Background(), id, domain.StageContacted, "", "alice")
	if err != nil {
		t.Fatalf("stage move must not fail on log error: %v", err)
	}
	if lead.Stage != domain.StageContacted {
		t.Fatalf("expected stage Contacted, got %s", lead.Stage)
	}
}

func TestAutoProgressBands(t *testing.T) {
	tests := []struct {
		score      float64
		wantStage  string
		wantMoved  bool
		wantReason string
	}{
		{92, domain.StageQualified, true, "High qualification score"},
		{80, domain.StageQualified, true, "High qualification score"},
		{65, domain.StageQualified, true, "Good qualification score"},
		{60, domain.StageQualified, true, "Good qualification score"},
		{40, domain.StageNew, false, "kept at New stage"},
	}

	for _, tt := range tests {
		store := newFakeStore()
		svc := testService(store, &fakeRecorder{})
		id := store.add(domain.StageNew, 0)

		result, err := svc.AutoProgressAfterQualification(context.Background(), id, tt.score)
		if err != nil {
			t.Fatalf("score %.0f: %v", tt.score, err)
		}
		if result.Lead.Stage != tt.wantStage {
			t.Fatalf("score %.0f: expected stage %s, got %s", tt.score, tt.wantStage, result.Lead.Stage)
		}
		if result.Moved != tt.wantMoved {
			t.Fatalf("score %.0f: expected moved=%v", tt.score, tt.wantMoved)
		}
		if !strings.Contains(result.Reason, tt.wantReason) {
			t.Fatalf("score %.0f: reason %q missing %q", tt.score, result.Reason, tt.wantReason)
		}
		if result.Lead.Score != tt.score {
			t.Fatalf("score %.0f: score not persisted, got %.0f", tt.score, result.Lead.Score)
		}
	}
}

func TestAutoProgressPersistsLowScore(t *testing.T) {
	store := newFakeStore()
	rec := &fakeRecorder{}
	svc := testService(store, rec)
	id := store.add(domain.StageNew, 0)

	result, err := svc.AutoProgressAfterQualification(context.Background(), id, 30)
	if err != nil {
		t.Fatalf("AutoProgress: %v", err)
	}
	if result.Lead.Score != 30 {
		t.Fatalf("expected score 30 persisted, got %.0f", result.Lead.Score)
	}
	if len(rec.records) != 0 {
		t.Fatalf("low score must not log a stage progression")
	}
}

func TestAutoProgressLowScoreDemotesToNew(t *testing.T) {
	store := newFakeStore()
	rec := &fakeRecorder{}
	svc := testService(store, rec)
	id := store.add(domain.StageContacted, 0)

	result, err := svc.AutoProgressAfterQualification(context.Background(), id, 40)
	if err != nil {
		t.Fatalf("AutoProgress: %v", err)
	}
	if result.Lead.Stage != domain.StageNew {
		t.Fatalf("expected demotion to New, got %s", result.Lead.Stage)
	}
	if !result.Moved {
		t.Fatalf("expected a recorded move back to New")
	}
	if result.Lead.Score != 40 {
		t.Fatalf("expected score 40 persisted, got %.0f", result.Lead.Score)
	}
	if len(rec.records) != 1 {
		t.Fatalf("expected 1 activity, got %d", len(rec.records))
	}
	want := "stage_progression: Stage changed from Contacted to New - Low qualification score (40) - kept at New stage"
	if rec.records[0] != want {
		t.Fatalf("unexpected activity %q", rec.records[0])
	}
}

func TestStagesAreOrdered(t *testing.T) {
	svc := testService(newFakeStore(), &fakeRecorder{})
	stages := svc.Stages()
	if len(stages) != 6 {
		t.Fatalf("expected 6 stages, got %d", len(stages))
	}
	if stages[0].Name != domain.StageNew || stages[5].Name != domain.StageLost {
		t.Fatalf("unexpected stage order: %v", stages)
	}
	for _, st := range stages {
		if st.Description == "" {
			t.Fatalf("stage %s has no description", st.Name)
		}
	}
}

func TestStatsZeroFillsStages(t *testing.T) {
	store := newFakeStore()
	store.add(domain.StageNew, 0)
	store.add(domain.StageWon, 90)
	svc := testService(store, &fakeRecorder{})

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 2 {
		t.Fatalf("expected total 2, got %d", stats.Total)
	}
	if len(stats.ByStage) != 6 {
		t.Fatalf("expected all 6 stages present, got %d", len(stats.ByStage))
	}
	if stats.ByStage[domain.StageMeeting] != 0 {
		t.Fatalf("empty stage should be zero-filled")
	}
}

func TestAnalyticsConversionRate(t *testing.T) {
	store := newFakeStore()
	store.counted = map[string]int{
		domain.StageWon:  1,
		domain.StageLost: 2,
	}
	svc := testService(store, &fakeRecorder{})

	analytics, err := svc.Analytics(context.Background())
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if analytics.ConversionRate != 33.33 {
		t.Fatalf("expected 33.33, got %.2f", analytics.ConversionRate)
	}
}

func TestAnalyticsNoClosedLeads(t *testing.T) {
	store := newFakeStore()
	store.add(domain.StageNew, 0)
	svc := testService(store, &fakeRecorder{})

	analytics, err := svc.Analytics(context.Background())
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if analytics.ConversionRate != 0 {
		t.Fatalf("expected 0 conversion with no closed leads, got %.2f", analytics.ConversionRate)
	}
}
