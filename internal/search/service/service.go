// Package service ranks search candidates with additive relevance weights.
package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/google/uuid"

	"leadpilot_backend/internal/leads/domain"
	"leadpilot_backend/internal/search/repository"
	"leadpilot_backend/internal/search/transport"
	"leadpilot_backend/platform/apperr"
)

// Relevance weights per matched lead column.
const (
	weightCompany       = 10.0
	weightCompanyPrefix = 5.0
	weightName          = 8.0
	weightTitle         = 6.0
	weightEmail         = 7.0
	weightMetadata      = 4.0
)

// Relevance weights per matched activity column.
const (
	weightDetail = 10.0
	weightAction = 5.0
	weightActor  = 3.0
)

const (
	defaultLimit     = 50
	suggestionsLimit = 10
)

// Store is the candidate-fetching surface of the repository.
type Store interface {
	SearchLeads(ctx context.Context, query string, scope repository.Scope, limit int) ([]repository.Lead, error)
	SearchActivities(ctx context.Context, query string, leadID *uuid.UUID, limit int) ([]repository.Activity, error)
	LeadsWithMetadata(ctx context.Context) ([]repository.Lead, error)
	CompaniesMatching(ctx context.Context, query string, limit int) ([]string, error)
	ContactsMatching(ctx context.Context, query string, limit int) ([]string, error)
}

type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

// SearchLeads ranks leads matching the query within the given scope.
func (s *Service) SearchLeads(ctx context.Context, query string, scope repository.Scope, limit int) ([]transport.LeadResult, error) {
	const op = "search.SearchLeads"

	query = strings.TrimSpace(query)
	if query == "" {
		return []transport.LeadResult{}, nil
	}
	if scope == "" {
		scope = repository.ScopeAll
	}
	if !repository.KnownScope(scope) {
		return nil, apperr.Validation("unknown search type").WithOp(op)
	}
	limit = normalizeLimit(limit)

	leads, err := s.store.SearchLeads(ctx, query, scope, limit)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	results := make([]transport.LeadResult, 0, len(leads))
	for _, lead := range leads {
		results = append(results, transport.LeadResult{
			ID:             lead.ID,
			Company:        lead.Company,
			Name:           lead.Name,
			Title:          lead.Title,
			Email:          lead.Email,
			Phone:          lead.Phone,
			Website:        lead.Website,
			Score:          lead.Score,
			Stage:          lead.Stage,
			CreatedAt:      lead.CreatedAt,
			Metadata:       lead.Metadata,
			RelevanceScore: ScoreLead(lead, q),
			MatchType:      LeadMatchType(lead, q),
		})
	}

	// Stable keeps store order for equal scores; tie order is otherwise
	// unspecified.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	return results, nil
}

// ScoreLead computes the additive relevance of a lead for a lowercase query.
func ScoreLead(lead repository.Lead, q string) float64 {
	var score float64

	company := strings.ToLower(lead.Company)
	if strings.Contains(company, q) {
		score += weightCompany
		if strings.HasPrefix(company, q) {
			score += weightCompanyPrefix
		}
	}
	if containsFold(lead.Name, q) {
		score += weightName
	}
	if containsFold(lead.Title, q) {
		score += weightTitle
	}
	if containsFold(lead.Email, q) {
		score += weightEmail
	}
	if metadataContains(lead.Metadata, q) {
		score += weightMetadata
	}
	return score
}

// LeadMatchType labels the first matching column in priority order.
func LeadMatchType(lead repository.Lead, q string) string {
	switch {
	case strings.Contains(strings.ToLower(lead.Company), q):
		return "company"
	case containsFold(lead.Name, q):
		return "contact"
	case containsFold(lead.Title, q):
		return "title"
	case containsFold(lead.Email, q):
		return "email"
	case metadataContains(lead.Metadata, q):
		return "metadata"
	default:
		return "unknown"
	}
}

// SearchActivities ranks activities matching the query, optionally narrowed
// to one lead.
func (s *Service) SearchActivities(ctx context.Context, query string, leadID *uuid.UUID, limit int) ([]transport.ActivityResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []transport.ActivityResult{}, nil
	}
	limit = normalizeLimit(limit)

	activities, err := s.store.SearchActivities(ctx, query, leadID, limit)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	results := make([]transport.ActivityResult, 0, len(activities))
	for _, a := range activities {
		results = append(results, transport.ActivityResult{
			ID:             a.ID,
			LeadID:         a.LeadID,
			LeadCompany:    a.LeadCompany,
			Actor:          a.Actor,
			Action:         a.Action,
			Detail:         parseDetail(a.Detail),
			CreatedAt:      a.CreatedAt,
			RelevanceScore: ScoreActivity(a, q),
			MatchType:      ActivityMatchType(a, q),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	return results, nil
}

// ScoreActivity computes the additive relevance of an activity.
func ScoreActivity(a repository.Activity, q string) float64 {
	var score float64
	if containsFold(a.Detail, q) {
		score += weightDetail
	}
	if strings.Contains(strings.ToLower(a.Action), q) {
		score += weightAction
	}
	if strings.Contains(strings.ToLower(a.Actor), q) {
		score += weightActor
	}
	return score
}

// ActivityMatchType labels the first matching column in priority order.
func ActivityMatchType(a repository.Activity, q string) string {
	switch {
	case strings.Contains(strings.ToLower(a.Action), q):
		return "action"
	case containsFold(a.Detail, q):
		return "detail"
	case strings.Contains(strings.ToLower(a.Actor), q):
		return "actor"
	default:
		return "unknown"
	}
}

// SearchMetadata scans every lead's metadata document for the query, scoped
// to one field when given. Every hit scores a flat 1.0.
func (s *Service) SearchMetadata(ctx context.Context, query, field string, limit int) ([]transport.MetadataResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []transport.MetadataResult{}, nil
	}
	limit = normalizeLimit(limit)

	leads, err := s.store.LeadsWithMetadata(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	results := []transport.MetadataResult{}
	for _, lead := range leads {
		for key, value := range lead.Metadata {
			if field != "" && key != field {
				continue
			}
			if !strings.Contains(strings.ToLower(value.Stringify()), q) {
				continue
			}
			results = append(results, transport.MetadataResult{
				LeadID:         lead.ID,
				Company:        lead.Company,
				Field:          key,
				Value:          value,
				FullMetadata:   lead.Metadata,
				RelevanceScore: 1.0,
			})
		}
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Suggestions returns autocomplete candidates for a partial query.
func (s *Service) Suggestions(ctx context.Context, query string) (transport.Suggestions, error) {
	suggestions := transport.Suggestions{
		Companies:  []string{},
		Contacts:   []string{},
		Industries: []string{},
		TechStacks: []string{},
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return suggestions, nil
	}

	companies, err := s.store.CompaniesMatching(ctx, query, suggestionsLimit)
	if err != nil {
		return transport.Suggestions{}, err
	}
	suggestions.Companies = dedupe(companies)

	contacts, err := s.store.ContactsMatching(ctx, query, suggestionsLimit)
	if err != nil {
		return transport.Suggestions{}, err
	}
	suggestions.Contacts = append(suggestions.Contacts, contacts...)

	leads, err := s.store.LeadsWithMetadata(ctx)
	if err != nil {
		return transport.Suggestions{}, err
	}

	q := strings.ToLower(query)
	industries := map[string]struct{}{}
	techStacks := map[string]struct{}{}
	for _, lead := range leads {
		if industry, ok := lead.Metadata["industry"]; ok {
			text := industry.Stringify()
			if strings.Contains(strings.ToLower(text), q) {
				industries[text] = struct{}{}
			}
		}
		if stack, ok := lead.Metadata["tech_stack"]; ok {
			for _, tech := range flatten(stack) {
				if strings.Contains(strings.ToLower(tech), q) {
					techStacks[tech] = struct{}{}
				}
			}
		}
	}
	suggestions.Industries = sortedKeys(industries)
	suggestions.TechStacks = sortedKeys(techStacks)

	return suggestions, nil
}

// flatten expands list values into their elements; scalars stay whole.
func flatten(v domain.MetaValue) []string {
	if v.Kind() == domain.MetaList {
		items := v.List()
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, item.Stringify())
		}
		return out
	}
	return []string{v.Stringify()}
}

func containsFold(s *string, q string) bool {
	return s != nil && strings.Contains(strings.ToLower(*s), q)
}

// metadataContains matches against the document's serialized JSON, the same
// text form the repository's metadata filter scans, so a row the SQL matched
// also scores here. The readable rendering is checked as well for queries
// spanning key/value boundaries.
func metadataContains(doc domain.Document, q string) bool {
	if len(doc) == 0 {
		return false
	}
	if serialized, err := doc.Serialize(); err == nil &&
		strings.Contains(strings.ToLower(serialized), q) {
		return true
	}
	return strings.Contains(strings.ToLower(doc.Stringify()), q)
}

// parseDetail surfaces JSON-looking details as structured payloads.
func parseDetail(detail *string) any {
	if detail == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*detail)
	if strings.HasPrefix(trimmed, "{") {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
			return parsed
		}
	}
	return *detail
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return limit
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
