// Package service implements lead CRUD and the orchestration of
// qualification and outreach around the pipeline engine and activity log.
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"leadpilot_backend/internal/events"
	"leadpilot_backend/internal/leads/domain"
	"leadpilot_backend/internal/leads/pipeline"
	"leadpilot_backend/internal/leads/qualify"
	"leadpilot_backend/internal/leads/repository"
	"leadpilot_backend/platform/apperr"
	"leadpilot_backend/platform/logger"
	"leadpilot_backend/platform/phone"
	"leadpilot_backend/platform/sanitize"
)

// Recorder appends to the activity log.
type Recorder interface {
	Record(ctx context.Context, leadID uuid.UUID, actor, action, detail string, payload any) (repository.Activity, error)
}

// Qualifier scores leads and drafts outreach via the model adapter.
type Qualifier interface {
	Qualify(ctx context.Context, lead repository.Lead, weights qualify.Weights) (qualify.QualificationResult, error)
	GenerateOutreach(ctx context.Context, lead repository.Lead, tone, goal string) (qualify.OutreachDraft, error)
}

// Progressor is the pipeline engine surface the service drives.
type Progressor interface {
	AutoProgressAfterQualification(ctx context.Context, leadID uuid.UUID, score float64) (pipeline.AutoProgressResult, error)
}

// MailSender delivers generated outreach. Nil when SMTP is not configured.
type MailSender interface {
	SendOutreach(ctx context.Context, to, subject, body string) error
}

// Store is the repository slice the lead service needs.
type Store interface {
	repository.LeadReader
	repository.LeadWriter
}

type Service struct {
	store     Store
	recorder  Recorder
	qualifier Qualifier
	pipeline  Progressor
	sender    MailSender
	bus       events.Bus
	log       *logger.Logger
}

func NewService(store Store, recorder Recorder, qualifier Qualifier, progressor Progressor, sender MailSender, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		recorder:  recorder,
		qualifier: qualifier,
		pipeline:  progressor,
		sender:    sender,
		bus:       bus,
		log:       log,
	}
}

// CreateLeadInput carries the fields accepted when creating a lead.
type CreateLeadInput struct {
	Company  string
	Name     *string
	Title    *string
	Email    *string
	Phone    *string
	Website  *string
	Metadata domain.Document
}

// Create adds a new lead to the pipeline at the New stage. Company names are
// unique case-insensitively; the check is a pre-check query, so two
// concurrent creates for the same company can race past it.
func (s *Service) Create(ctx context.Context, input CreateLeadInput) (repository.Lead, error) {
	const op = "leads.Create"

	company := sanitize.Text(input.Company)
	if company == "" {
		return repository.Lead{}, apperr.Validation("company is required").WithOp(op)
	}

	exists, err := s.store.ExistsByCompany(ctx, company)
	if err != nil {
		return repository.Lead{}, err
	}
	if exists {
		return repository.Lead{}, apperr.Conflict("a lead for this company already exists").WithOp(op)
	}

	lead, err := s.store.Create(ctx, repository.CreateLeadParams{
		Company:  company,
		Name:     sanitize.TextPtr(input.Name),
		Title:    sanitize.TextPtr(input.Title),
		Email:    input.Email,
		Phone:    normalizePhone(input.Phone),
		Website:  input.Website,
		Metadata: input.Metadata,
	})
	if err != nil {
		return repository.Lead{}, err
	}

	if _, err := s.recorder.Record(ctx, lead.ID, domain.ActorSystem, domain.ActionLeadCreated,
		"Lead created for "+company, nil); err != nil {
		s.log.ActivityLogFailure(lead.ID.String(), domain.ActionLeadCreated, err)
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Company:   lead.Company,
	})

	return lead, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	return s.store.GetByID(ctx, id)
}

// List returns all leads, newest first.
func (s *Service) List(ctx context.Context) ([]repository.Lead, error) {
	return s.store.List(ctx)
}

// UpdateLeadInput carries a partial lead update. Nil fields are unchanged.
type UpdateLeadInput struct {
	ID       uuid.UUID
	Company  *string
	Name     *string
	Title    *string
	Email    *string
	Phone    *string
	Website  *string
	Metadata *domain.Document
}

// Update applies a partial update and records which fields changed.
func (s *Service) Update(ctx context.Context, input UpdateLeadInput) (repository.Lead, error) {
	const op = "leads.Update"

	if input.Company != nil {
		clean := sanitize.Text(*input.Company)
		if clean == "" {
			return repository.Lead{}, apperr.Validation("company cannot be empty").WithOp(op)
		}
		input.Company = &clean
	}

	var changed []string
	appendChanged := func(name string, set bool) {
		if set {
			changed = append(changed, name)
		}
	}
	appendChanged("company", input.Company != nil)
	appendChanged("name", input.Name != nil)
	appendChanged("title", input.Title != nil)
	appendChanged("email", input.Email != nil)
	appendChanged("phone", input.Phone != nil)
	appendChanged("website", input.Website != nil)
	appendChanged("metadata", input.Metadata != nil)

	if len(changed) == 0 {
		return s.store.GetByID(ctx, input.ID)
	}

	lead, err := s.store.Update(ctx, repository.UpdateLeadParams{
		ID:       input.ID,
		Company:  input.Company,
		Name:     sanitize.TextPtr(input.Name),
		Title:    sanitize.TextPtr(input.Title),
		Email:    input.Email,
		Phone:    normalizePhone(input.Phone),
		Website:  input.Website,
		Metadata: input.Metadata,
	})
	if err != nil {
		return repository.Lead{}, err
	}

	if _, err := s.recorder.Record(ctx, lead.ID, domain.ActorSystem, domain.ActionLeadUpdated,
		"Updated fields: "+strings.Join(changed, ", "), nil); err != nil {
		s.log.ActivityLogFailure(lead.ID.String(), domain.ActionLeadUpdated, err)
	}

	return lead, nil
}

// Delete removes a lead. Its activity log cascades away with it, so the
// deletion itself is only visible in the operator log.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	lead, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("lead deleted", "lead_id", id.String(), "company", lead.Company)
	return nil
}

// QualificationOutcome reports a qualification run.
type QualificationOutcome struct {
	Lead   repository.Lead             `json:"lead"`
	Result qualify.QualificationResult `json:"result"`
	Reason string                      `json:"reason"`
	Moved  bool                        `json:"moved"`
}

// Qualify scores a lead via the model and persists the outcome. A failed
// model call or unparseable verdict persists nothing; only a
// qualification_failed activity marks the attempt.
func (s *Service) Qualify(ctx context.Context, leadID uuid.UUID, weights qualify.Weights) (QualificationOutcome, error) {
	lead, err := s.store.GetByID(ctx, leadID)
	if err != nil {
		return QualificationOutcome{}, err
	}

	result, err := s.qualifier.Qualify(ctx, lead, weights)
	if err != nil {
		if _, recErr := s.recorder.Record(ctx, leadID, domain.ActorSystem, domain.ActionQualificationFailed,
			err.Error(), nil); recErr != nil {
			s.log.ActivityLogFailure(leadID.String(), domain.ActionQualificationFailed, recErr)
		}
		return QualificationOutcome{}, err
	}

	progress, err := s.pipeline.AutoProgressAfterQualification(ctx, leadID, result.Score)
	if err != nil {
		return QualificationOutcome{}, err
	}

	payload := map[string]any{
		"score":         result.Score,
		"justification": result.Justification,
	}
	if result.Breakdown != nil {
		payload["breakdown"] = result.Breakdown
	}
	if _, err := s.recorder.Record(ctx, leadID, domain.ActorSystem, domain.ActionQualificationCompleted,
		progress.Reason, payload); err != nil {
		s.log.ActivityLogFailure(leadID.String(), domain.ActionQualificationCompleted, err)
	}

	s.bus.Publish(ctx, events.LeadQualified{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		Score:     result.Score,
	})

	return QualificationOutcome{
		Lead:   progress.Lead,
		Result: result,
		Reason: progress.Reason,
		Moved:  progress.Moved,
	}, nil
}

// GenerateOutreach drafts a personalized email for the lead and logs it.
func (s *Service) GenerateOutreach(ctx context.Context, leadID uuid.UUID, tone, goal string) (qualify.OutreachDraft, error) {
	lead, err := s.store.GetByID(ctx, leadID)
	if err != nil {
		return qualify.OutreachDraft{}, err
	}

	draft, err := s.qualifier.GenerateOutreach(ctx, lead, tone, goal)
	if err != nil {
		return qualify.OutreachDraft{}, err
	}

	if _, err := s.recorder.Record(ctx, leadID, domain.ActorSystem, domain.ActionOutreachGenerated,
		"", draft); err != nil {
		s.log.ActivityLogFailure(leadID.String(), domain.ActionOutreachGenerated, err)
	}

	s.bus.Publish(ctx, events.OutreachGenerated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		Subject:   draft.Subject,
	})

	return draft, nil
}

// SendOutreach generates a draft and emails it to the lead's address.
func (s *Service) SendOutreach(ctx context.Context, leadID uuid.UUID, tone, goal string) (qualify.OutreachDraft, error) {
	const op = "leads.SendOutreach"

	if s.sender == nil {
		return qualify.OutreachDraft{}, apperr.BadRequest("outreach email delivery is not configured").WithOp(op)
	}

	lead, err := s.store.GetByID(ctx, leadID)
	if err != nil {
		return qualify.OutreachDraft{}, err
	}
	if lead.Email == nil || *lead.Email == "" {
		return qualify.OutreachDraft{}, apperr.Validation("lead has no email address").WithOp(op)
	}

	draft, err := s.GenerateOutreach(ctx, leadID, tone, goal)
	if err != nil {
		return qualify.OutreachDraft{}, err
	}

	if err := s.sender.SendOutreach(ctx, *lead.Email, draft.Subject, draft.Body); err != nil {
		return qualify.OutreachDraft{}, err
	}

	if _, err := s.recorder.Record(ctx, leadID, domain.ActorSystem, domain.ActionOutreachSent,
		"Outreach sent to "+*lead.Email, nil); err != nil {
		s.log.ActivityLogFailure(leadID.String(), domain.ActionOutreachSent, err)
	}

	return draft, nil
}

// normalizePhone formats a phone number to E.164 on a best-effort basis.
func normalizePhone(raw *string) *string {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	normalized := phone.NormalizeE164(*raw)
	return &normalized
}
