package activity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadpilot_backend/internal/leads/domain"
	"leadpilot_backend/internal/leads/repository"
	"leadpilot_backend/platform/logger"
)

type fakeStore struct {
	activities []repository.Activity
	deletedIDs []uuid.UUID
	cleared    bool
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	return repository.Lead{ID: id}, nil
}

func (f *fakeStore) InsertActivity(ctx context.Context, params repository.CreateActivityParams) (repository.Activity, error) {
	a := repository.Activity{
		ID:        uuid.New(),
		LeadID:    params.LeadID,
		Actor:     params.Actor,
		Action:    params.Action,
		Detail:    params.Detail,
		CreatedAt: time.Now(),
	}
	f.activities = append(f.activities, a)
	return a, nil
}

func (f *fakeStore) ListForLead(ctx context.Context, leadID uuid.UUID) ([]repository.Activity, error) {
	var out []repository.Activity
	for _, a := range f.activities {
		if a.LeadID == leadID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAllActivities(ctx context.Context) ([]repository.Activity, error) {
	return f.activities, nil
}

func (f *fakeStore) CountActivities(ctx context.Context) (int, error) {
	return len(f.activities), nil
}

func (f *fakeStore) DeleteActivitiesByIDs(ctx context.Context, ids []uuid.UUID) (int, error) {
	f.deletedIDs = append(f.deletedIDs, ids...)
	return len(ids), nil
}

func (f *fakeStore) DeleteAllActivities(ctx context.Context) (int, error) {
	f.cleared = true
	n := len(f.activities)
	f.activities = nil
	return n, nil
}

func testService(store Store) *Service {
	return NewService(store, logger.New("test"))
}

func act(leadID uuid.UUID, age time.Duration) repository.Activity {
	return repository.Activity{
		ID:        uuid.New(),
		LeadID:    leadID,
		Actor:     "system",
		Action:    domain.ActionLeadUpdated,
		CreatedAt: time.Now().Add(-age),
	}
}

func TestSelectOlderThan(t *testing.T) {
	lead := uuid.New()
	old := act(lead, 48*time.Hour)
	fresh := act(lead, time.Hour)

	got := SelectOlderThan([]repository.Activity{old, fresh}, time.Now().Add(-24*time.Hour))
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].ID != old.ID {
		t.Fatalf("expected the older activity to be selected")
	}
}

func TestSelectBeyondKeepCount(t *testing.T) {
	leadA := uuid.New()
	leadB := uuid.New()

	// Most recent first within each lead, matching repository ordering.
	input := []repository.Activity{
		act(leadA, 1*time.Hour),
		act(leadA, 2*time.Hour),
		act(leadA, 3*time.Hour),
		act(leadB, 1*time.Hour),
	}

	got := SelectBeyondKeepCount(input, 2)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].ID != input[2].ID {
		t.Fatalf("expected the third activity of lead A to be selected")
	}

	if got := SelectBeyondKeepCount(input, 0); len(got) != len(input) {
		t.Fatalf("keep count 0 should select everything, got %d of %d", len(got), len(input))
	}
}

func TestUnionByIDDeduplicates(t *testing.T) {
	lead := uuid.New()
	a := act(lead, time.Hour)
	b := act(lead, 2*time.Hour)

	union := UnionByID([]repository.Activity{a, b}, []repository.Activity{b})
	if len(union) != 2 {
		t.Fatalf("expected 2 after dedup, got %d", len(union))
	}
}

func TestRecordFoldsPayloadIntoDetail(t *testing.T) {
	store := &fakeStore{}
	svc := testService(store)
	leadID := uuid.New()

	created, err := svc.Record(context.Background(), leadID, "system", domain.ActionQualificationCompleted,
		"Score 85", map[string]any{"score": 85})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if created.Detail == nil {
		t.Fatalf("expected folded detail")
	}
	if *created.Detail != `Score 85 {"score":85}` {
		t.Fatalf("unexpected detail: %q", *created.Detail)
	}
}

func TestRecordPlaceholderWhenEmpty(t *testing.T) {
	store := &fakeStore{}
	svc := testService(store)

	created, err := svc.Record(context.Background(), uuid.New(), "system", domain.ActionOutreachGenerated, "", nil)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if created.Detail == nil || *created.Detail != "No details provided" {
		t.Fatalf("expected placeholder detail, got %v", created.Detail)
	}
}

func TestPruneCombinedDryRunDeletesNothing(t *testing.T) {
	lead := uuid.New()
	store := &fakeStore{activities: []repository.Activity{
		act(lead, 72*time.Hour),
		act(lead, time.Hour),
	}}
	svc := testService(store)

	result, err := svc.PruneCombined(context.Background(), 24*time.Hour, 50, true)
	if err != nil {
		t.Fatalf("PruneCombined: %v", err)
	}
	if result.Candidates != 1 {
		t.Fatalf("expected 1 candidate, got %d", result.Candidates)
	}
	if result.Deleted != 0 {
		t.Fatalf("dry run must not delete, reported %d", result.Deleted)
	}
	if len(store.deletedIDs) != 0 {
		t.Fatalf("dry run hit the store delete path")
	}
}

func TestPruneCombinedCountsOverlapOnce(t *testing.T) {
	lead := uuid.New()
	// Ancient activity is both too old and beyond the keep count.
	store := &fakeStore{activities: []repository.Activity{
		act(lead, time.Hour),
		act(lead, 200*time.Hour),
	}}
	svc := testService(store)

	result, err := svc.PruneCombined(context.Background(), 24*time.Hour, 1, false)
	if err != nil {
		t.Fatalf("PruneCombined: %v", err)
	}
	if result.Candidates != 1 {
		t.Fatalf("expected overlap to count once, got %d candidates", result.Candidates)
	}
	if result.Deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", result.Deleted)
	}
}

func TestPrunePreviewIsBounded(t *testing.T) {
	lead := uuid.New()
	store := &fakeStore{}
	for i := 0; i < 25; i++ {
		store.activities = append(store.activities, act(lead, 100*time.Hour))
	}
	svc := testService(store)

	result, err := svc.PruneByAge(context.Background(), 24*time.Hour, true)
	if err != nil {
		t.Fatalf("PruneByAge: %v", err)
	}
	if result.Candidates != 25 {
		t.Fatalf("expected 25 candidates, got %d", result.Candidates)
	}
	if len(result.Preview) != previewLimit {
		t.Fatalf("expected preview of %d, got %d", previewLimit, len(result.Preview))
	}
}

func TestClearAll(t *testing.T) {
	lead := uuid.New()
	store := &fakeStore{activities: []repository.Activity{act(lead, time.Hour)}}
	svc := testService(store)

	dry, err := svc.ClearAll(context.Background(), true)
	if err != nil {
		t.Fatalf("ClearAll dry: %v", err)
	}
	if dry.Total != 1 || dry.Deleted != 0 || store.cleared {
		t.Fatalf("dry run must not clear: %+v", dry)
	}

	live, err := svc.ClearAll(context.Background(), false)
	if err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if live.Deleted != 1 || !store.cleared {
		t.Fatalf("expected live clear to delete: %+v", live)
	}
}
