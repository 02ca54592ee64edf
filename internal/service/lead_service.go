package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/careerlab/careerlab-os/internal/models"
	appErrors "github.com/careerlab/careerlab-os/pkg/errors"
)

type leadRepository interface {
	List(ctx context.Context, filter models.LeadFilter) ([]models.Lead, int, error)
	FindByID(ctx context.Context, id string) (*models.Lead, error)
	Create(ctx context.Context, lead *models.Lead) error
	Update(ctx context.Context, lead *models.Lead) error
}

type communicationReader interface {
	ListByLead(ctx context.Context, leadID string) ([]models.Communication, error)
}

type dashboardCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

const dashboardCachePattern = "dashboard:*"

// CreateLeadRequest registers a manually entered lead.
type CreateLeadRequest struct {
	Name   string             `json:"name" validate:"required"`
	Email  string             `json:"email" validate:"required,email"`
	Phone  string             `json:"phone"`
	Score  *int               `json:"score" validate:"omitempty,min=0,max=100"`
	Status *models.LeadStatus `json:"status" validate:"omitempty,oneof=NEW PROCESSING HOT CONVERTED COLD"`
}

// UpdateLeadRequest patches lead fields. Nil fields are left untouched.
type UpdateLeadRequest struct {
	Name   *string            `json:"name"`
	Email  *string            `json:"email" validate:"omitempty,email"`
	Phone  *string            `json:"phone"`
	Score  *int               `json:"score" validate:"omitempty,min=0,max=100"`
	Status *models.LeadStatus `json:"status" validate:"omitempty,oneof=NEW PROCESSING HOT CONVERTED COLD"`
}

// LeadService owns the CRM funnel's lead records.
type LeadService struct {
	leads     leadRepository
	comms     communicationReader
	cache     dashboardCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLeadService constructs the lead service. cache may be nil, in which
// case dashboard aggregates go stale until their TTL expires.
func NewLeadService(leads leadRepository, comms communicationReader, cache dashboardCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *LeadService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadService{leads: leads, comms: comms, cache: cache, validator: validate, logger: logger}
}

func (s *LeadService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

// List returns a filtered, paginated page of leads.
func (s *LeadService) List(ctx context.Context, filter models.LeadFilter) ([]models.Lead, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	leads, total, err := s.leads.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leads")
	}
	return leads, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one lead with its full communication history.
func (s *LeadService) Get(ctx context.Context, id string) (*models.LeadDetail, error) {
	lead, err := s.leads.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lead not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lead")
	}

	comms, err := s.comms.ListByLead(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load communications")
	}
	return &models.LeadDetail{Lead: *lead, Communications: comms}, nil
}

// Create registers a lead. Manual entries default to status NEW with a
// baseline score of 10 and the manual_entry source.
func (s *LeadService) Create(ctx context.Context, req CreateLeadRequest) (*models.Lead, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "name and a valid email are required")
	}

	lead := &models.Lead{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Status:       models.LeadStatusNew,
		Score:        10,
		SourceDomain: "manual_entry",
	}
	if req.Status != nil {
		lead.Status = *req.Status
	}
	if req.Score != nil {
		lead.Score = *req.Score
	}

	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lead")
	}
	s.invalidateDashboard(ctx)
	return lead, nil
}

// Update applies a partial patch to a lead.
func (s *LeadService) Update(ctx context.Context, id string, req UpdateLeadRequest) (*models.Lead, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lead payload")
	}

	lead, err := s.leads.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lead not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lead")
	}

	if req.Name != nil {
		lead.Name = *req.Name
	}
	if req.Email != nil {
		lead.Email = *req.Email
	}
	if req.Phone != nil {
		lead.Phone = *req.Phone
	}
	if req.Score != nil {
		lead.Score = *req.Score
	}
	if req.Status != nil {
		lead.Status = *req.Status
	}

	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lead")
	}
	s.invalidateDashboard(ctx)
	return lead, nil
}
