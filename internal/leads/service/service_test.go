package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"leadpilot_backend/internal/leads/domain"
	"leadpilot_backend/internal/leads/pipeline"
	"leadpilot_backend/internal/leads/qualify"
	"leadpilot_backend/internal/leads/repository"
	"leadpilot_backend/platform/apperr"
	"leadpilot_backend/platform/events"
	"leadpilot_backend/platform/logger"
)

type fakeStore struct {
	leads map[uuid.UUID]*repository.Lead
}

func newFakeStore() *fakeStore {
	return &fakeStore{leads: make(map[uuid.UUID]*repository.Lead)}
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	l, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	return *l, nil
}

func (f *fakeStore) List(ctx context.Context) ([]repository.Lead, error) {
	var out []repository.Lead
	for _, l := range f.leads {
		out = append(out, *l)
	}
	return out, nil
}

func (f *fakeStore) ExistsByCompany(ctx context.Context, company string) (bool, error) {
	for _, l := range f.leads {
		if strings.EqualFold(l.Company, company) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CountByStage(ctx context.Context) (map[string]int, error) {
	return map[string]int{}, nil
}

func (f *fakeStore) CountAll(ctx context.Context) (int, error) {
	return len(f.leads), nil
}

func (f *fakeStore) Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	l := &repository.Lead{
		ID:       uuid.New(),
		Company:  params.Company,
		Name:     params.Name,
		Title:    params.Title,
		Email:    params.Email,
		Phone:    params.Phone,
		Website:  params.Website,
		Metadata: params.Metadata,
		Stage:    domain.StageNew,
	}
	f.leads[l.ID] = l
	return *l, nil
}

func (f *fakeStore) Update(ctx context.Context, params repository.UpdateLeadParams) (repository.Lead, error) {
	l, ok := f.leads[params.ID]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if params.Company != nil {
		l.Company = *params.Company
	}
	if params.Name != nil {
		l.Name = params.Name
	}
	if params.Title != nil {
		l.Title = params.Title
	}
	if params.Email != nil {
		l.Email = params.Email
	}
	if params.Phone != nil {
		l.Phone = params.Phone
	}
	if params.Website != nil {
		l.Website = params.Website
	}
	if params.Metadata != nil {
		l.Metadata = *params.Metadata
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

func (f *fakeStore) ListRecent(ctx context.Context, limit int) ([]repository.Activity, error) {
	return nil, nil
}

func (f *fakeStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.leads[id]; !ok {
		return apperr.NotFound("lead not found")
	}
	delete(f.leads, id)
	return nil
}

type recorded struct {
	action string
	detail string
}

type fakeRecorder struct {
	entries []recorded
}

func (f *fakeRecorder) Record(ctx context.Context, leadID uuid.UUID, actor, action, detail string, payload any) (repository.Activity, error) {
	f.entries = append(f.entries, recorded{action: action, detail: detail})
	return repository.Activity{ID: uuid.New(), LeadID: leadID, Actor: actor, Action: action}, nil
}

func (f *fakeRecorder) last() recorded {
	return f.entries[len(f.entries)-1]
}

type fakeQualifier struct {
	result qualify.QualificationResult
	draft  qualify.OutreachDraft
	err    error
}

func (f *fakeQualifier) Qualify(ctx context.Context, lead repository.Lead, weights qualify.Weights) (qualify.QualificationResult, error) {
	if f.err != nil {
		return qualify.QualificationResult{}, f.err
	}
	return f.result, nil
}

func (f *fakeQualifier) GenerateOutreach(ctx context.Context, lead repository.Lead, tone, goal string) (qualify.OutreachDraft, error) {
	if f.err != nil {
		return qualify.OutreachDraft{}, f.err
	}
	return f.draft, nil
}

type sentMail struct {
	to      string
	subject string
}

type fakeSender struct {
	sent []sentMail
	err  error
}

func (f *fakeSender) SendOutreach(ctx context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject})
	return nil
}

type fixture struct {
	store     *fakeStore
	recorder  *fakeRecorder
	qualifier *fakeQualifier
	sender    *fakeSender
	svc       *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.New("test")
	store := newFakeStore()
	recorder := &fakeRecorder{}
	qualifier := &fakeQualifier{}
	sender := &fakeSender{}
	bus := events.NewInMemoryBus(log)
	engine := pipeline.NewService(store, recorder, bus, log)
	svc := NewService(store, recorder, qualifier, engine, sender, bus, log)
	return &fixture{store: store, recorder: recorder, qualifier: qualifier, sender: sender, svc: svc}
}

func TestCreateLead(t *testing.T) {
	fx := newFixture(t)

	lead, err := fx.svc.Create(context.Background(), CreateLeadInput{Company: "Acme Robotics"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if lead.Stage != domain.StageNew {
		t.Fatalf("new lead must start at New, got %s", lead.Stage)
	}
	if len(fx.recorder.entries) != 1 || fx.recorder.entries[0].action != domain.ActionLeadCreated {
		t.Fatalf("expected lead_created activity, got %v", fx.recorder.entries)
	}
}

func TestCreateLeadEmptyCompany(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.Create(context.Background(), CreateLeadInput{Company: "   "})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateLeadDuplicateCompany(t *testing.T) {
	fx := newFixture(t)

	if _, err := fx.svc.Create(context.Background(), CreateLeadInput{Company: "Acme"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := fx.svc.Create(context.Background(), CreateLeadInput{Company: "ACME"})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on case-insensitive duplicate, got %v", err)
	}
}

func TestCreateLeadStripsHTMLFromText(t *testing.T) {
	fx := newFixture(t)

	name := "Jane <script>alert(1)</script> Doe"
	lead, err := fx.svc.Create(context.Background(), CreateLeadInput{
		Company: "  Acme   <b>Robotics</b>  ",
		Name:    &name,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if lead.Company != "Acme Robotics" {
		t.Fatalf("expected sanitized company, got %q", lead.Company)
	}
	if lead.Name == nil || *lead.Name != "Jane alert(1) Doe" {
		t.Fatalf("expected sanitized name, got %v", lead.Name)
	}
}

func TestCreateLeadNormalizesPhone(t *testing.T) {
	fx := newFixture(t)

	raw := "(415) 555-2671"
	lead, err := fx.svc.Create(context.Background(), CreateLeadInput{Company: "Acme", Phone: &raw})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if lead.Phone == nil || *lead.Phone != "+14155552671" {
		t.Fatalf("expected E.164 phone, got %v", lead.Phone)
	}
}

func TestUpdateRecordsChangedFields(t *testing.T) {
	fx := newFixture(t)
	lead, _ := fx.svc.Create(context.Background(), CreateLeadInput{Company: "Acme"})

	title := "CTO"
	email := "cto@acme.test"
	if _, err := fx.svc.Update(context.Background(), UpdateLeadInput{ID: lead.ID, Title: &title, Email: &email}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	last := fx.recorder.last()
	if last.action != domain.ActionLeadUpdated {
		t.Fatalf("expected lead_updated, got %s", last.action)
	}
	if last.detail != "Updated fields: title, email" {
		t.Fatalf("unexpected detail %q", last.detail)
	}
}

func TestUpdateNothingIsNoOp(t *testing.T) {
	fx := newFixture(t)
	lead, _ := fx.svc.Create(context.Background(), CreateLeadInput{Company: "Acme"})
	before := len(fx.recorder.entries)

	got, err := fx.svc.Update(context.Background(), UpdateLeadInput{ID: lead.ID})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.ID != lead.ID {
		t.Fatalf("expected existing lead back")
	}
	if len(fx.recorder.entries) != before {
		t.Fatalf("empty update must not log an activity")
	}
}

func TestDeleteMissingLead(t *testing.T) {
	fx := newFixture(t)

	err := fx.svc.Delete(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestQualifyPersistsScoreAndProgresses(t *testing.T) {
	fx := newFixture(t)
	lead, _ := fx.svc.Create(context.Background(), CreateLeadInput{Company: "Acme"})
	fx.qualifier.result = qualify.QualificationResult{Score: 85, Justification: "strong"}

	outcome, err := fx.svc.Qualify(context.Background(), lead.ID, nil)
	if err != nil {
		t.Fatalf("Qualify: %v", err)
	}
	if outcome.Lead.Score != 85 {
		t.Fatalf("expected score persisted, got %v", outcome.Lead.Score)
	}
	if outcome.Lead.Stage != domain.StageQualified {
		t.Fatalf("expected auto-progress to Qualified, got %s", outcome.Lead.Stage)
	}
	if !outcome.Moved {
		t.Fatalf("expected moved=true")
	}

	last := fx.recorder.last()
	if last.action != domain.ActionQualificationCompleted {
		t.Fatalf("expected qualification_completed, got %s", last.action)
	}
}

func TestQualifyLowScoreStaysAtNew(t *testing.T) {
	fx := newFixture(t)
	lead, _ := fx.svc.Create(context.Background(), CreateLeadInput{Company: "Acme"})
	fx.qualifier.result = qualify.QualificationResult{Score: 35}

	outcome, err := fx.svc.Qualify(context.Background(), lead.ID, nil)
	if err != nil {
		t.Fatalf("Qualify: %v", err)
	}
	if outcome.Lead.Stage != domain.StageNew {
		t.Fatalf("low score must keep stage, got %s", outcome.Lead.Stage)
	}
	if outcome.Lead.Score != 35 {
		t.Fatalf("low score must still persist, got %v", outcome.Lead.Score)
	}
	if !strings.Contains(outcome.Reason, "kept at New stage") {
		t.Fatalf("unexpected reason %q", outcome.Reason)
	}
}

func TestQualifyFailurePersistsNothing(t *testing.T) {
	fx := newFixture(t)
	lead, _ := fx.svc.Create(context.Background(), CreateLeadInput{Company: "Acme"})
	fx.qualifier.err = apperr.Unprocessable("could not parse model output")

	_, err := fx.svc.Qualify(context.Background(), lead.ID, nil)
	if !apperr.Is(err, apperr.KindUnprocessable) {
		t.Fatalf("expected unprocessable, got %v", err)
	}

	got, _ := fx.store.GetByID(context.Background(), lead.ID)
	if got.Score != 0 || got.Stage != domain.StageNew {
		t.Fatalf("failed qualification must not persist: %+v", got)
	}
	last := fx.recorder.last()
	if last.action != domain.ActionQualificationFailed {
		t.Fatalf("expected qualification_failed activity, got %s", last.action)
	}
}

func TestGenerateOutreachLogsDraft(t *testing.T) {
	fx := newFixture(t)
	lead, _ := fx.svc.Create(context.Background(), CreateLeadInput{Company: "Acme"})
	fx.qualifier.draft = qualify.OutreachDraft{Subject: "Quick question", Body: "Hi", Tags: []string{}}

	draft, err := fx.svc.GenerateOutreach(context.Background(), lead.ID, "", "")
	if err != nil {
		t.Fatalf("GenerateOutreach: %v", err)
	}
	if draft.Subject != "Quick question" {
		t.Fatalf("unexpected draft %+v", draft)
	}
	last := fx.recorder.last()
	if last.action != domain.ActionOutreachGenerated {
		t.Fatalf("expected outreach_generated, got %s", last.action)
	}
}

func TestSendOutreach(t *testing.T) {
	fx := newFixture(t)
	email := "dana@acme.test"
	lead, _ := fx.svc.Create(context.Background(), CreateLeadInput{Company: "Acme", Email: &email})
	fx.qualifier.draft = qualify.OutreachDraft{Subject: "Hello", Body: "Hi Dana"}

	if _, err := fx.svc.SendOutreach(context.Background(), lead.ID, "", ""); err != nil {
		t.Fatalf("SendOutreach: %v", err)
	}
	if len(fx.sender.sent) != 1 || fx.sender.sent[0].to != email {
		t.Fatalf("expected mail to %s, got %v", email, fx.sender.sent)
	}
	last := fx.recorder.last()
	if last.action != domain.ActionOutreachSent {
		t.Fatalf("expected outreach_sent, got %s", last.action)
	}
}

func TestSendOutreachWithoutEmail(t *testing.T) {
	fx := newFixture(t)
	lead, _ := fx.svc.Create(context.Background(), CreateLeadInput{Company: "Acme"})

	_, err := fx.svc.SendOutreach(context.Background(), lead.ID, "", "")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
