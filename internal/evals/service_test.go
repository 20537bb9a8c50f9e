package evals

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"leadpilot_backend/internal/leads/qualify"
	"leadpilot_backend/internal/leads/repository"
	"leadpilot_backend/platform/apperr"
	"leadpilot_backend/platform/logger"
)

type fakeQualifier struct {
	scores map[string]float64
	err    error
}

func (f *fakeQualifier) Qualify(ctx context.Context, lead repository.Lead, weights qualify.Weights) (qualify.QualificationResult, error) {
	if f.err != nil {
		return qualify.QualificationResult{}, f.err
	}
	return qualify.QualificationResult{Score: f.scores[lead.Company]}, nil
}

type testConfig struct {
	casesPath  string
	outputPath string
}

func (c testConfig) GetEvalCasesPath() string  { return c.casesPath }
func (c testConfig) GetEvalOutputPath() string { return c.outputPath }

func writeCases(t *testing.T, cases string) testConfig {
	t.Helper()
	dir := t.TempDir()
	casesPath := filepath.Join(dir, "cases.json")
	if err := os.WriteFile(casesPath, []byte(cases), 0o644); err != nil {
		t.Fatalf("write cases: %v", err)
	}
	return testConfig{casesPath: casesPath, outputPath: filepath.Join(dir, "out.json")}
}

func TestRunScoresWithinTolerance(t *testing.T) {
	cfg := writeCases(t, `[
		{"id": "good-fit", "lead": {"company": "Acme"}, "expected_score": 80},
		{"id": "bad-fit", "lead": {"company": "Globex"}, "expected_score": 20, "tol": 5}
	]`)
	qual := &fakeQualifier{scores: map[string]float64{"Acme": 88, "Globex": 40}}
	svc := NewService(qual, cfg, logger.New("test"))

	summary, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Total != 2 {
		t.Fatalf("expected 2 cases, got %d", summary.Total)
	}
	// 88 is within the default tolerance of 80; 40 misses 20 by more than 5.
	if summary.OK != 1 {
		t.Fatalf("expected 1 passing case, got %d", summary.OK)
	}
	if summary.Cases[1].OK == nil || *summary.Cases[1].OK {
		t.Fatalf("tight tolerance case should fail")
	}
}

func TestRunCaseWithoutExpectationIsUnjudged(t *testing.T) {
	cfg := writeCases(t, `[{"id": "exploratory", "lead": {"company": "Acme"}}]`)
	qual := &fakeQualifier{scores: map[string]float64{"Acme": 50}}
	svc := NewService(qual, cfg, logger.New("test"))

	summary, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Cases[0].OK != nil {
		t.Fatalf("case without expected score must be unjudged")
	}
	if summary.OK != 0 {
		t.Fatalf("unjudged cases do not count as passes")
	}
}

func TestRunAdapterFailureDoesNotAbort(t *testing.T) {
	cfg := writeCases(t, `[
		{"id": "first", "lead": {"company": "Acme"}, "expected_score": 50}
	]`)
	qual := &fakeQualifier{err: apperr.BadGateway("model down")}
	svc := NewService(qual, cfg, logger.New("test"))

	summary, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run must survive case failures: %v", err)
	}
	if summary.Cases[0].Error == "" {
		t.Fatalf("expected error recorded on failed case")
	}
	if summary.Cases[0].OK == nil || *summary.Cases[0].OK {
		t.Fatalf("failed case must not pass")
	}
}

func TestRunWritesSummaryFile(t *testing.T) {
	cfg := writeCases(t, `[{"id": "only", "lead": {"company": "Acme"}, "expected_score": 50}]`)
	qual := &fakeQualifier{scores: map[string]float64{"Acme": 55}}
	svc := NewService(qual, cfg, logger.New("test"))

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	raw, err := os.ReadFile(cfg.outputPath)
	if err != nil {
		t.Fatalf("summary file not written: %v", err)
	}
	var written Summary
	if err := json.Unmarshal(raw, &written); err != nil {
		t.Fatalf("summary file is not valid JSON: %v", err)
	}
	if written.Total != 1 || written.OK != 1 {
		t.Fatalf("unexpected written summary %+v", written)
	}
}

func TestRunMissingCasesFile(t *testing.T) {
	cfg := testConfig{casesPath: "/nonexistent/cases.json", outputPath: "/tmp/out.json"}
	svc := NewService(&fakeQualifier{}, cfg, logger.New("test"))

	if _, err := svc.Run(context.Background()); err == nil {
		t.Fatalf("expected error for missing cases file")
	}
}
