package qualify

import (
	"context"
	"strconv"
	"strings"

	"leadpilot_backend/internal/leads/repository"
	"leadpilot_backend/platform/apperr"
	"leadpilot_backend/platform/logger"
)

// Generator produces model completions. Satisfied by the Grok client.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

// Model call parameters, matching the Grok client defaults.
const (
	maxTokens   = 512
	temperature = 0.2
)

type Service struct {
	generator Generator
	log       *logger.Logger
}

func NewService(generator Generator, log *logger.Logger) *Service {
	return &Service{generator: generator, log: log}
}

// QualificationResult is the parsed model verdict on a lead.
type QualificationResult struct {
	Score         float64        `json:"score"`
	Justification string         `json:"justification"`
	Breakdown     map[string]any `json:"breakdown,omitempty"`
	Raw           map[string]any `json:"raw,omitempty"`
}

// Qualify scores a lead against the weighted criteria. Upstream failures
// surface as BadGateway; a response that cannot be parsed into a scored
// verdict surfaces as Unprocessable with a short raw preview.
func (s *Service) Qualify(ctx context.Context, lead repository.Lead, overrides Weights) (QualificationResult, error) {
	const op = "qualify.Qualify"

	if err := ValidateWeights(overrides); err != nil {
		return QualificationResult{}, apperr.Validation(err.Error()).WithOp(op)
	}
	weights := MergeWeights(overrides)

	prompt := BuildQualificationPrompt(ProfileOf(lead), weights)
	text, err := s.generator.Generate(ctx, prompt, maxTokens, temperature)
	if err != nil {
		return QualificationResult{}, err
	}

	parsed, ok := extractJSON(text)
	if !ok {
		return QualificationResult{}, apperr.Unprocessable("could not parse model output: " + rawPreview(text)).WithOp(op)
	}

	score, ok := numericScore(parsed["score"])
	if !ok {
		return QualificationResult{}, apperr.Unprocessable("model output has no numeric score: " + rawPreview(text)).WithOp(op)
	}
	if score < 0 || score > 100 {
		s.log.Warn("qualification score outside expected range", "score", score, "lead_id", lead.ID.String())
	}

	result := QualificationResult{Score: score, Raw: parsed}
	if justification, ok := parsed["justification"].(string); ok {
		result.Justification = justification
	}
	if breakdown, ok := parsed["breakdown"].(map[string]any); ok {
		result.Breakdown = breakdown
	}
	return result, nil
}

// numericScore accepts the JSON number shapes a model is likely to emit.
func numericScore(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// OutreachDraft is a generated cold email.
type OutreachDraft struct {
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	Tags    []string `json:"tags"`
}

// GenerateOutreach drafts a personalized email for the lead. Unlike Qualify,
// an unparseable response degrades to a plain-text draft instead of failing.
func (s *Service) GenerateOutreach(ctx context.Context, lead repository.Lead, tone, goal string) (OutreachDraft, error) {
	prompt := BuildOutreachPrompt(ProfileOf(lead), tone, goal)
	text, err := s.generator.Generate(ctx, prompt, maxTokens, temperature)
	if err != nil {
		return OutreachDraft{}, err
	}

	parsed, ok := extractJSON(text)
	if !ok {
		return fallbackDraft(text), nil
	}

	draft := OutreachDraft{Tags: []string{}}
	if subject, ok := parsed["subject"].(string); ok {
		draft.Subject = subject
	}
	if body, ok := parsed["body"].(string); ok {
		draft.Body = body
	}
	if tags, ok := parsed["tags"].([]any); ok {
		for _, tag := range tags {
			if str, ok := tag.(string); ok {
				draft.Tags = append(draft.Tags, str)
			}
		}
	}
	return draft, nil
}

// fallbackDraft salvages raw model text when no JSON could be extracted.
func fallbackDraft(text string) OutreachDraft {
	return OutreachDraft{Subject: "Hey", Body: truncateRunes(text, 500), Tags: []string{}}
}
