// Package evals runs labeled qualification cases against the model adapter
// and reports how close the scores land to expectations.
package evals

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"golang.org/x/sync/errgroup"

	"leadpilot_backend/internal/leads/domain"
	"leadpilot_backend/internal/leads/qualify"
	"leadpilot_backend/internal/leads/repository"
	"leadpilot_backend/platform/apperr"
	"leadpilot_backend/platform/config"
	"leadpilot_backend/platform/logger"
)

// defaultTolerance is the accepted score drift when a case omits its own.
const defaultTolerance = 15.0

// maxConcurrentCases caps in-flight model calls during a run so the harness
// stays under the upstream rate limit.
const maxConcurrentCases = 4

// Case is one labeled qualification scenario.
type Case struct {
	ID            string          `json:"id"`
	Lead          CaseLead        `json:"lead"`
	Weights       qualify.Weights `json:"weights,omitempty"`
	ExpectedScore *float64        `json:"expected_score,omitempty"`
	Tolerance     *float64        `json:"tol,omitempty"`
}

// CaseLead is the lead fixture a case runs against.
type CaseLead struct {
	Company  string          `json:"company"`
	Name     *string         `json:"name"`
	Title    *string         `json:"title"`
	Email    *string         `json:"email"`
	Website  *string         `json:"website"`
	Metadata domain.Document `json:"metadata"`
}

// CaseResult reports one case run. OK is nil when the case carries no
// expected score to compare against.
type CaseResult struct {
	CaseID   string   `json:"case_id"`
	OK       *bool    `json:"ok"`
	Score    *float64 `json:"score,omitempty"`
	Expected *float64 `json:"expected,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Summary aggregates an eval run.
type Summary struct {
	Total int          `json:"total"`
	OK    int          `json:"ok"`
	Cases []CaseResult `json:"cases"`
}

// Qualifier is the adapter surface the harness drives.
type Qualifier interface {
	Qualify(ctx context.Context, lead repository.Lead, weights qualify.Weights) (qualify.QualificationResult, error)
}

type Service struct {
	qualifier Qualifier
	cfg       config.EvalConfig
	log       *logger.Logger
}

func NewService(qualifier Qualifier, cfg config.EvalConfig, log *logger.Logger) *Service {
	return &Service{qualifier: qualifier, cfg: cfg, log: log}
}

// Run loads the configured cases, scores each through the adapter and writes
// the summary to the configured output path. A failing case never aborts the
// run.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	cases, err := s.loadCases()
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Cases: make([]CaseResult, len(cases))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentCases)
	for i, c := range cases {
		g.Go(func() error {
			summary.Cases[i] = s.runCase(gctx, c)
			return nil
		})
	}
	// runCase never returns an error; failures land in the case result.
	_ = g.Wait()
	summary.Total = len(summary.Cases)
	for _, r := range summary.Cases {
		if r.OK != nil && *r.OK {
			summary.OK++
		}
	}

	if err := s.writeSummary(summary); err != nil {
		s.log.Error("failed to write eval summary", "path", s.cfg.GetEvalOutputPath(), "error", err.Error())
	}
	return summary, nil
}

func (s *Service) runCase(ctx context.Context, c Case) CaseResult {
	result := CaseResult{CaseID: c.ID, Expected: c.ExpectedScore}

	lead := repository.Lead{
		Company:  c.Lead.Company,
		Name:     c.Lead.Name,
		Title:    c.Lead.Title,
		Email:    c.Lead.Email,
		Website:  c.Lead.Website,
		Metadata: c.Lead.Metadata,
	}

	qr, err := s.qualifier.Qualify(ctx, lead, c.Weights)
	if err != nil {
		failed := false
		result.OK = &failed
		result.Error = err.Error()
		return result
	}

	result.Score = &qr.Score
	if c.ExpectedScore != nil {
		tol := defaultTolerance
		if c.Tolerance != nil {
			tol = *c.Tolerance
		}
		ok := math.Abs(qr.Score-*c.ExpectedScore) <= tol
		result.OK = &ok
	}
	return result
}

func (s *Service) loadCases() ([]Case, error) {
	const op = "evals.loadCases"

	raw, err := os.ReadFile(s.cfg.GetEvalCasesPath())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal,
			fmt.Sprintf("failed to read eval cases from %s", s.cfg.GetEvalCasesPath()), err).WithOp(op)
	}

	var cases []Case
	if err := json.Unmarshal(raw, &cases); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "eval cases file is not valid JSON", err).WithOp(op)
	}
	return cases, nil
}

func (s *Service) writeSummary(summary Summary) error {
	encoded, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.cfg.GetEvalOutputPath(), encoded, 0o644)
}
