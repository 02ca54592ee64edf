package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/careerlab/careerlab-os/internal/ai"
	"github.com/careerlab/careerlab-os/internal/models"
	appErrors "github.com/careerlab/careerlab-os/pkg/errors"
)

type analysisLeadRepository interface {
	FindByID(ctx context.Context, id string) (*models.Lead, error)
	SaveAnalysis(ctx context.Context, id string, analysis models.LeadAnalysis) error
}

// LeadAnalysisService classifies a lead via the model and writes the
// validated persona, score and summary back onto the record. Model output
// is fail-closed: anything outside the contract is discarded and the lead
// is left untouched.
type LeadAnalysisService struct {
	leads     analysisLeadRepository
	generator ai.Generator
	logger    *zap.Logger
}

// NewLeadAnalysisService constructs the analysis service.
func NewLeadAnalysisService(leads analysisLeadRepository, generator ai.Generator, logger *zap.Logger) *LeadAnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadAnalysisService{leads: leads, generator: generator, logger: logger}
}

// Analyze runs one lead through persona classification.
func (s *LeadAnalysisService) Analyze(ctx context.Context, id string) (*models.Lead, error) {
	lead, err := s.leads.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lead not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lead")
	}

	raw, err := s.generator.Generate(ctx, analysisPrompt(lead))
	if err != nil {
		return nil, err
	}

	analysis, err := parseAnalysis(raw)
	if err != nil {
		s.logger.Warn("discarding invalid analysis payload", zap.String("lead_id", id), zap.Error(err))
		return nil, appErrors.Clone(appErrors.ErrUpstream, "model returned an invalid analysis, please retry")
	}

	if err := s.leads.SaveAnalysis(ctx, id, *analysis); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save analysis")
	}

	lead.Persona = analysis.Persona
	lead.Score = analysis.Score
	lead.AISummary = analysis.Summary
	return lead, nil
}

func analysisPrompt(lead *models.Lead) string {
	return fmt.Sprintf(`Classify this career-services lead.
Name: %s
Email: %s
Source: %s

Decide whether the lead is an individual student or a corporate/college contact, estimate purchase intent 0-100, and summarise in one sentence.
Respond with ONLY a JSON object, no markdown fences: {"persona": "STUDENT" or "CORPORATE", "score": integer 0-100, "summary": string}`,
		lead.Name, lead.Email, lead.SourceDomain)
}

// parseAnalysis validates the model's classification. The persona must be
// one of the two known values and the score is clamped into 0-100.
func parseAnalysis(raw string) (*models.LeadAnalysis, error) {
	var analysis models.LeadAnalysis
	if err := json.Unmarshal([]byte(ai.StripFences(raw)), &analysis); err != nil {
		return nil, fmt.Errorf("parse analysis: %w", err)
	}

	switch models.LeadPersona(analysis.Persona) {
	case models.PersonaStudent, models.PersonaCorporate:
	default:
		return nil, fmt.Errorf("unknown persona %q", analysis.Persona)
	}

	if analysis.Score < 0 {
		analysis.Score = 0
	}
	if analysis.Score > 100 {
		analysis.Score = 100
	}
	return &analysis, nil
}
