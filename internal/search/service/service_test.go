package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadpilot_backend/internal/leads/domain"
	"leadpilot_backend/internal/search/repository"
)

type fakeStore struct {
	leads      []repository.Lead
	activities []repository.Activity
}

func (f *fakeStore) SearchLeads(ctx context.Context, query string, scope repository.Scope, limit int) ([]repository.Lead, error) {
	return f.leads, nil
}

func (f *fakeStore) SearchActivities(ctx context.Context, query string, leadID *uuid.UUID, limit int) ([]repository.Activity, error) {
	if leadID == nil {
		return f.activities, nil
	}
	var out []repository.Activity
	for _, a := range f.activities {
		if a.LeadID == *leadID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) LeadsWithMetadata(ctx context.Context) ([]repository.Lead, error) {
	var out []repository.Lead
	for _, l := range f.leads {
		if len(l.Metadata) > 0 {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) CompaniesMatching(ctx context.Context, query string, limit int) ([]string, error) {
	var out []string
	for _, l := range f.leads {
		out = append(out, l.Company)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) ContactsMatching(ctx context.Context, query string, limit int) ([]string, error) {
	var out []string
	for _, l := range f.leads {
		if l.Name != nil {
			out = append(out, *l.Name)
		}
	}
	return out, nil
}

func lead(company string, name, title, email *string, meta domain.Document) repository.Lead {
	return repository.Lead{
		ID:        uuid.New(),
		Company:   company,
		Name:      name,
		Title:     title,
		Email:     email,
		Metadata:  meta,
		Stage:     "New",
		CreatedAt: time.Now(),
	}
}

func str(s string) *string { return &s }

func TestScoreLeadWeightsAreAdditive(t *testing.T) {
	l := lead("Acme Robotics", str("Dana Acme"), str("CTO at Acme"), str("dana@acme.io"),
		domain.Document{"industry": domain.MetaStr("acme services")})

	// company (10) + prefix (5) + name (8) + title (6) + email (7) + metadata (4)
	if got := ScoreLead(l, "acme"); got != 40 {
		t.Fatalf("expected 40, got %v", got)
	}
}

func TestScoreLeadPrefixBonusOnlyOnPrefix(t *testing.T) {
	l := lead("Big Acme Corp", nil, nil, nil, nil)
	if got := ScoreLead(l, "acme"); got != 10 {
		t.Fatalf("expected 10 for non-prefix company match, got %v", got)
	}
}

func TestScoreLeadMetadataMatchesSerializedJSON(t *testing.T) {
	// The repository filters on the raw JSON text, so a query that only hits
	// quoted keys or punctuation still has to score as a metadata match.
	l := lead("Globex", nil, nil, nil,
		domain.Document{"funding_stage": domain.MetaStr("Series B")})

	q := `"funding_stage":"series`
	if got := ScoreLead(l, q); got != 4 {
		t.Fatalf("expected metadata weight 4, got %v", got)
	}
	if got := LeadMatchType(l, q); got != "metadata" {
		t.Fatalf("expected metadata match type, got %s", got)
	}
}

func TestLeadMatchTypePriority(t *testing.T) {
	tests := []struct {
		name string
		lead repository.Lead
		want string
	}{
		{"company wins", lead("Acme", str("acme person"), nil, nil, nil), "company"},
		{"contact before title", lead("Globex", str("Acme Fan"), str("acme lover"), nil, nil), "contact"},
		{"title before email", lead("Globex", nil, str("Acme lead"), str("x@acme.io"), nil), "title"},
		{"email before metadata", lead("Globex", nil, nil, str("x@acme.io"),
			domain.Document{"note": domain.MetaStr("acme")}), "email"},
		{"metadata last", lead("Globex", nil, nil, nil,
			domain.Document{"note": domain.MetaStr("acme")}), "metadata"},
		{"unknown", lead("Globex", nil, nil, nil, nil), "unknown"},
	}
	for _, tt := range tests {
		if got := LeadMatchType(tt.lead, "acme"); got != tt.want {
			t.Fatalf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
}

func TestSearchLeadsSortsByRelevance(t *testing.T) {
	weak := lead("Globex", nil, nil, nil, domain.Document{"note": domain.MetaStr("acme partner")})
	strong := lead("Acme", nil, nil, nil, nil)
	svc := New(&fakeStore{leads: []repository.Lead{weak, strong}})

	results, err := svc.SearchLeads(context.Background(), "acme", repository.ScopeAll, 0)
	if err != nil {
		t.Fatalf("SearchLeads: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Company != "Acme" {
		t.Fatalf("expected strongest match first, got %s", results[0].Company)
	}
	if results[0].RelevanceScore <= results[1].RelevanceScore {
		t.Fatalf("results not sorted by relevance")
	}
}

func TestSearchLeadsEmptyQuery(t *testing.T) {
	svc := New(&fakeStore{leads: []repository.Lead{lead("Acme", nil, nil, nil, nil)}})

	results, err := svc.SearchLeads(context.Background(), "   ", repository.ScopeAll, 0)
	if err != nil {
		t.Fatalf("SearchLeads: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("empty query must return no results")
	}
}

func TestSearchLeadsUnknownScope(t *testing.T) {
	svc := New(&fakeStore{})
	if _, err := svc.SearchLeads(context.Background(), "acme", "phone", 0); err == nil {
		t.Fatalf("expected error for unknown search type")
	}
}

func activityRow(leadID uuid.UUID, actor, action string, detail *string) repository.Activity {
	return repository.Activity{
		ID:          uuid.New(),
		LeadID:      leadID,
		LeadCompany: "Acme",
		Actor:       actor,
		Action:      action,
		Detail:      detail,
		CreatedAt:   time.Now(),
	}
}

func TestScoreActivityWeights(t *testing.T) {
	a := activityRow(uuid.New(), "demo user", "demo_run", str("ran the demo flow"))
	// detail (10) + action (5) + actor (3)
	if got := ScoreActivity(a, "demo"); got != 18 {
		t.Fatalf("expected 18, got %v", got)
	}
}

func TestActivityMatchTypePriority(t *testing.T) {
	a := activityRow(uuid.New(), "system", "stage_progression", str("Stage changed"))
	if got := ActivityMatchType(a, "stage"); got != "action" {
		t.Fatalf("expected action, got %s", got)
	}
	if got := ActivityMatchType(a, "changed"); got != "detail" {
		t.Fatalf("expected detail, got %s", got)
	}
	if got := ActivityMatchType(a, "system"); got != "actor" {
		t.Fatalf("expected actor, got %s", got)
	}
}

func TestSearchActivitiesParsesJSONDetail(t *testing.T) {
	leadID := uuid.New()
	jsonDetail := `{"score": 85, "justification": "strong"}`
	svc := New(&fakeStore{activities: []repository.Activity{
		activityRow(leadID, "system", "qualification_completed", &jsonDetail),
	}})

	results, err := svc.SearchActivities(context.Background(), "strong", nil, 0)
	if err != nil {
		t.Fatalf("SearchActivities: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	parsed, ok := results[0].Detail.(map[string]any)
	if !ok {
		t.Fatalf("expected parsed payload, got %T", results[0].Detail)
	}
	if parsed["score"] != float64(85) {
		t.Fatalf("unexpected payload %v", parsed)
	}
}

func TestSearchActivitiesLeadFilter(t *testing.T) {
	target := uuid.New()
	other := uuid.New()
	svc := New(&fakeStore{activities: []repository.Activity{
		activityRow(target, "system", "lead_created", str("Lead created")),
		activityRow(other, "system", "lead_created", str("Lead created")),
	}})

	results, err := svc.SearchActivities(context.Background(), "created", &target, 0)
	if err != nil {
		t.Fatalf("SearchActivities: %v", err)
	}
	if len(results) != 1 || results[0].LeadID != target {
		t.Fatalf("lead filter not applied: %v", results)
	}
}

func TestSearchMetadataFlatScore(t *testing.T) {
	svc := New(&fakeStore{leads: []repository.Lead{
		lead("Acme", nil, nil, nil, domain.Document{
			"industry":   domain.MetaStr("fintech"),
			"tech_stack": domain.MetaListOf(domain.MetaStr("Go"), domain.MetaStr("Postgres")),
		}),
	}})

	results, err := svc.SearchMetadata(context.Background(), "fintech", "", 0)
	if err != nil {
		t.Fatalf("SearchMetadata: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].RelevanceScore != 1.0 {
		t.Fatalf("metadata hits score a flat 1.0, got %v", results[0].RelevanceScore)
	}
	if results[0].Field != "industry" {
		t.Fatalf("unexpected field %s", results[0].Field)
	}
}

func TestSearchMetadataFieldScope(t *testing.T) {
	svc := New(&fakeStore{leads: []repository.Lead{
		lead("Acme", nil, nil, nil, domain.Document{
			"industry": domain.MetaStr("robotics"),
			"notes":    domain.MetaStr("robotics pioneer"),
		}),
	}})

	results, err := svc.SearchMetadata(context.Background(), "robotics", "industry", 0)
	if err != nil {
		t.Fatalf("SearchMetadata: %v", err)
	}
	if len(results) != 1 || results[0].Field != "industry" {
		t.Fatalf("field scope not applied: %v", results)
	}
}

func TestSuggestions(t *testing.T) {
	svc := New(&fakeStore{leads: []repository.Lead{
		lead("Acme Robotics", str("Dana Reeve"), nil, nil, domain.Document{
			"industry":   domain.MetaStr("Robotics"),
			"tech_stack": domain.MetaListOf(domain.MetaStr("Go"), domain.MetaStr("Rust")),
		}),
		lead("Acme Robotics", nil, nil, nil, nil),
	}})

	suggestions, err := svc.Suggestions(context.Background(), "ro")
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if len(suggestions.Companies) != 1 {
		t.Fatalf("companies not deduplicated: %v", suggestions.Companies)
	}
	if len(suggestions.Industries) != 1 || suggestions.Industries[0] != "Robotics" {
		t.Fatalf("unexpected industries %v", suggestions.Industries)
	}
	if len(suggestions.TechStacks) != 0 {
		t.Fatalf("no tech matches 'ro', got %v", suggestions.TechStacks)
	}

	// tech_stack lists are flattened per element.
	suggestions, err = svc.Suggestions(context.Background(), "rust")
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if len(suggestions.TechStacks) != 1 || suggestions.TechStacks[0] != "Rust" {
		t.Fatalf("unexpected tech stacks %v", suggestions.TechStacks)
	}
}

func TestSuggestionsEmptyQuery(t *testing.T) {
	svc := New(&fakeStore{})
	suggestions, err := svc.Suggestions(context.Background(), "")
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if suggestions.Companies == nil || suggestions.Contacts == nil {
		t.Fatalf("empty query must return empty slices, not nil")
	}
}
