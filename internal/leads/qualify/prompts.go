// Package qualify adapts lead records into Grok prompts and parses the
// model's JSON verdicts into qualification scores and outreach drafts.
package qualify

import (
	"encoding/json"
	"fmt"
	"strings"

	"leadpilot_backend/internal/leads/domain"
	"leadpilot_backend/internal/leads/repository"
)

// Weights maps scoring criteria to their relative importance.
type Weights map[string]int

// criterionOrder fixes the rendering order so prompts are deterministic.
var criterionOrder = []string{
	"company_size",
	"industry_fit",
	"funding",
	"decision_maker",
	"tech_stack",
	"revenue",
}

var criterionExplanations = map[string]string{
	"company_size":   "Company Size (weight: %d): Evaluate based on employee count - larger companies may have more budget and decision-making complexity",
	"industry_fit":   "Industry Fit (weight: %d): Assess alignment with target industries - tech, SaaS, finance typically score higher",
	"funding":        "Recent Funding (weight: %d): Consider recent funding rounds - well-funded companies have budget for new solutions",
	"decision_maker": "Decision Maker (weight: %d): Evaluate title/role - C-level, VP, Director roles indicate decision-making authority",
	"tech_stack":     "Tech Stack (weight: %d): Assess technology alignment - modern tech stacks indicate innovation readiness",
	"revenue":        "Revenue (weight: %d): Consider annual revenue - higher revenue suggests budget availability",
}

// DefaultWeights returns the baseline criterion weighting.
func DefaultWeights() Weights {
	return Weights{
		"company_size":   1,
		"industry_fit":   2,
		"funding":        1,
		"decision_maker": 2,
		"tech_stack":     1,
		"revenue":        1,
	}
}

// MergeWeights overlays caller weights on the defaults. Callers can override
// individual criteria but never remove one.
func MergeWeights(overrides Weights) Weights {
	merged := DefaultWeights()
	for criterion, weight := range overrides {
		merged[criterion] = weight
	}
	return merged
}

// ValidateWeights rejects weights outside 0 to 10.
func ValidateWeights(weights Weights) error {
	for criterion, weight := range weights {
		if weight < 0 || weight > 10 {
			return fmt.Errorf("weight for %s must be between 0 and 10, got %d", criterion, weight)
		}
	}
	return nil
}

// LeadProfile is the slice of a lead shown to the model.
type LeadProfile struct {
	Company  string          `json:"company"`
	Name     *string         `json:"name"`
	Title    *string         `json:"title"`
	Email    *string         `json:"email"`
	Website  *string         `json:"website"`
	Metadata domain.Document `json:"metadata"`
}

// ProfileOf extracts the prompt-visible fields from a lead.
func ProfileOf(lead repository.Lead) LeadProfile {
	return LeadProfile{
		Company:  lead.Company,
		Name:     lead.Name,
		Title:    lead.Title,
		Email:    lead.Email,
		Website:  lead.Website,
		Metadata: lead.Metadata,
	}
}

func (p LeadProfile) render() string {
	encoded, err := json.Marshal(p)
	if err != nil {
		return p.Company
	}
	return string(encoded)
}

func renderWeights(weights Weights) string {
	parts := make([]string, 0, len(criterionOrder))
	for _, criterion := range criterionOrder {
		if weight, ok := weights[criterion]; ok {
			parts = append(parts, fmt.Sprintf("%s: %d", criterion, weight))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// BuildQualificationPrompt renders the weighted-criteria scoring prompt. The
// model is instructed to return strictly valid JSON.
func BuildQualificationPrompt(lead LeadProfile, weights Weights) string {
	var criteria []string
	for _, criterion := range criterionOrder {
		weight, ok := weights[criterion]
		if !ok {
			continue
		}
		criteria = append(criteria, "- "+fmt.Sprintf(criterionExplanations[criterion], weight))
	}

	var b strings.Builder
	b.WriteString("You are a sales qualification assistant. Evaluate this lead using the following weighted criteria:\n\n")
	b.WriteString(strings.Join(criteria, "\n"))
	b.WriteString("\n\nScoring Weights: ")
	b.WriteString(renderWeights(weights))
	b.WriteString("\n\nLead Information:\n")
	b.WriteString(lead.render())
	b.WriteString("\n\nInstructions:\n")
	b.WriteString("1. Score each criterion from 0-10 based on the lead's information\n")
	b.WriteString("2. Apply the weights to calculate weighted scores\n")
	b.WriteString("3. Sum weighted scores and normalize to 0-100 scale\n")
	b.WriteString("4. Provide a clear justification for the overall score\n")
	b.WriteString("5. Include detailed breakdown showing individual criterion scores\n\n")
	b.WriteString("Return strictly valid JSON:\n")
	b.WriteString(`{
  "score": <int 0-100>,
  "justification": "<string explaining the overall score>",
  "breakdown": {
    "company_size": {"score": <0-10>, "weighted_score": <float>, "reason": "<string>"},
    "industry_fit": {"score": <0-10>, "weighted_score": <float>, "reason": "<string>"},
    "funding": {"score": <0-10>, "weighted_score": <float>, "reason": "<string>"},
    "decision_maker": {"score": <0-10>, "weighted_score": <float>, "reason": "<string>"},
    "tech_stack": {"score": <0-10>, "weighted_score": <float>, "reason": "<string>"},
    "revenue": {"score": <0-10>, "weighted_score": <float>, "reason": "<string>"}
  }
}`)
	return b.String()
}

// Outreach prompt defaults, matching the API's query parameter defaults.
const (
	DefaultTone = "friendly"
	DefaultGoal = "book a meeting"
)

// BuildOutreachPrompt renders the cold-email drafting prompt.
func BuildOutreachPrompt(lead LeadProfile, tone, goal string) string {
	if tone == "" {
		tone = DefaultTone
	}
	if goal == "" {
		goal = DefaultGoal
	}

	var b strings.Builder
	b.WriteString("You are an SDR writing a cold outreach email tailored to the lead below.\n")
	b.WriteString("Use the lead/company metadata to personalize subject and first paragraph.\n")
	b.WriteString("Keep it short (subject + 3 short paragraphs), end with a clear CTA to ")
	b.WriteString(goal)
	b.WriteString(".\nOutput JSON:\n")
	b.WriteString(`{
  "subject": "<subject line>",
  "body": "<email body in plain text>",
  "tags": ["<tag1>", "<tag2>"]
}`)
	b.WriteString("\n\nLead:\n")
	b.WriteString(lead.render())
	b.WriteString("\n\nTone: ")
	b.WriteString(tone)
	return b.String()
}
