package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/careerlab/careerlab-os/internal/ai"
	"github.com/careerlab/careerlab-os/internal/mail"
	"github.com/careerlab/careerlab-os/internal/models"
	"github.com/careerlab/careerlab-os/pkg/config"
	appErrors "github.com/careerlab/careerlab-os/pkg/errors"
)

type outreachLeadRepository interface {
	FindByID(ctx context.Context, id string) (*models.Lead, error)
	ClaimQualified(ctx context.Context, minScore, limit int) ([]models.Lead, error)
	SetStatus(ctx context.Context, id string, status models.LeadStatus) error
}

type communicationWriter interface {
	Create(ctx context.Context, comm *models.Communication) error
}

// OutreachOutcome reports what happened to one lead in a batch.
type OutreachOutcome struct {
	LeadID string `json:"lead_id"`
	Email  string `json:"email"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// BatchReport summarises one outbound batch run.
type BatchReport struct {
	Claimed  int               `json:"claimed"`
	Sent     int               `json:"sent"`
	Failed   int               `json:"failed"`
	Outcomes []OutreachOutcome `json:"outcomes"`
}

type draftedEmail struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// OutreachService runs autonomous outbound email over qualified leads.
// Each batch atomically claims up to BatchSize NEW leads with score at or
// above MinScore, drafts a personalised email per lead, sends it, records
// the communication and promotes the lead to HOT. A failure before the
// send releases only that lead back to NEW; the rest of the batch
// proceeds. Once the mail is out, bookkeeping failures never release the
// lead, so one claim can never produce two emails.
type OutreachService struct {
	leads     outreachLeadRepository
	comms     communicationWriter
	generator ai.Generator
	mailer    mail.Sender
	logger    *zap.Logger
	cfg       config.OutreachConfig
}

// NewOutreachService constructs the outreach service.
func NewOutreachService(leads outreachLeadRepository, comms communicationWriter, generator ai.Generator, mailer mail.Sender, logger *zap.Logger, cfg config.OutreachConfig) *OutreachService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	return &OutreachService{leads: leads, comms: comms, generator: generator, mailer: mailer, logger: logger, cfg: cfg}
}

// ProcessBatch claims and works one batch of qualified leads.
func (s *OutreachService) ProcessBatch(ctx context.Context) (*BatchReport, error) {
	leads, err := s.leads.ClaimQualified(ctx, s.cfg.MinScore, s.cfg.BatchSize)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to claim leads")
	}

	report := &BatchReport{Claimed: len(leads), Outcomes: make([]OutreachOutcome, 0, len(leads))}
	for _, lead := range leads {
		outcome := OutreachOutcome{LeadID: lead.ID, Email: lead.Email, Status: "sent"}
		if err := s.contact(ctx, &lead); err != nil {
			outcome.Status = "failed"
			outcome.Error = appErrors.FromError(err).Message
			report.Failed++
			s.logger.Warn("outreach failed for lead", zap.String("lead_id", lead.ID), zap.Error(err))
			if relErr := s.leads.SetStatus(ctx, lead.ID, models.LeadStatusNew); relErr != nil {
				s.logger.Error("failed to release lead", zap.String("lead_id", lead.ID), zap.Error(relErr))
			}
		} else {
			report.Sent++
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}
	return report, nil
}

// SendFollowUp drafts and sends a follow-up email to a single lead,
// regardless of funnel position.
func (s *OutreachService) SendFollowUp(ctx context.Context, leadID string) (*models.Communication, error) {
	lead, err := s.leads.FindByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lead not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lead")
	}

	draft, err := s.draft(ctx, lead, true)
	if err != nil {
		return nil, err
	}
	if err := s.mailer.Send(lead.Email, draft.Subject, draft.Body); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to send email")
	}

	comm := &models.Communication{
		LeadID:       lead.ID,
		Type:         models.CommunicationEmail,
		Direction:    models.DirectionOutbound,
		Content:      fmt.Sprintf("Subject: %s\n\n%s", draft.Subject, draft.Body),
		IsAutonomous: false,
	}
	if err := s.comms.Create(ctx, comm); err != nil {
		// The mail is already on the wire; an unlogged send beats a
		// duplicate one.
		s.logger.Error("failed to record communication", zap.String("lead_id", lead.ID), zap.Error(err))
	}
	return comm, nil
}

// contact runs the full draft-send-record-promote sequence for one
// claimed lead.
func (s *OutreachService) contact(ctx context.Context, lead *models.Lead) error {
	draft, err := s.draft(ctx, lead, false)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(lead.Email, draft.Subject, draft.Body); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to send email")
	}

	comm := &models.Communication{
		LeadID:       lead.ID,
		Type:         models.CommunicationEmail,
		Direction:    models.DirectionOutbound,
		Content:      fmt.Sprintf("Subject: %s\n\n%s", draft.Subject, draft.Body),
		IsAutonomous: true,
	}
	if err := s.comms.Create(ctx, comm); err != nil {
		s.logger.Error("failed to record communication", zap.String("lead_id", lead.ID), zap.Error(err))
	}

	if err := s.leads.SetStatus(ctx, lead.ID, models.LeadStatusHot); err != nil {
		// The mail is on the wire here too. Surfacing this as a failure
		// would release the lead to NEW and the next batch would email
		// them again; a lead stuck in PROCESSING is the lesser harm.
		s.logger.Error("failed to promote contacted lead", zap.String("lead_id", lead.ID), zap.Error(err))
	}
	return nil
}

func (s *OutreachService) draft(ctx context.Context, lead *models.Lead, followUp bool) (*draftedEmail, error) {
	raw, err := s.generator.Generate(ctx, outreachPrompt(lead, followUp))
	if err != nil {
		return nil, err
	}

	var draft draftedEmail
	if err := json.Unmarshal([]byte(ai.StripFences(raw)), &draft); err != nil {
		s.logger.Warn("discarding malformed email draft", zap.String("lead_id", lead.ID), zap.Error(err))
		return nil, appErrors.Clone(appErrors.ErrUpstream, "model returned a malformed draft, please retry")
	}
	if draft.Subject == "" || draft.Body == "" {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "model returned an empty draft, please retry")
	}
	return &draft, nil
}

func outreachPrompt(lead *models.Lead, followUp bool) string {
	kind := "a warm introductory"
	if followUp {
		kind = "a polite follow-up"
	}
	persona := lead.Persona
	if persona == "" {
		persona = "UNKNOWN"
	}
	return fmt.Sprintf(`You are an SDR for Career Lab Consulting, which sells career-services programs to students and placement training to colleges.
Write %s sales email to this lead.
Name: %s
Persona: %s
Interest summary: %s

Keep it under 120 words, warm and specific. Sign off as "Team Career Lab Consulting".
Respond with ONLY a JSON object, no markdown fences: {"subject": string, "body": string}`,
		kind, lead.Name, persona, lead.AISummary)
}
