package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerlab/careerlab-os/internal/models"
)

type mockLeadStore struct {
	leads map[string]*models.Lead
}

func (m *mockLeadStore) List(ctx context.Context, filter models.LeadFilter) ([]models.Lead, int, error) {
	var list []models.Lead
	for _, lead := range m.leads {
		if filter.Status != nil && lead.Status != *filter.Status {
			continue
		}
		list = append(list, *lead)
	}
	return list, len(list), nil
}

func (m *mockLeadStore) FindByID(ctx context.Context, id string) (*models.Lead, error) {
	if lead, ok := m.leads[id]; ok {
		return lead, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLeadStore) Create(ctx context.Context, lead *models.Lead) error {
	if m.leads == nil {
		m.leads = make(map[string]*models.Lead)
	}
	lead.ID = "lead-new"
	m.leads[lead.ID] = lead
	return nil
}

func (m *mockLeadStore) Update(ctx context.Context, lead *models.Lead) error {
	m.leads[lead.ID] = lead
	return nil
}

type mockCommReader struct {
	byLead map[string][]models.Communication
}

func (m *mockCommReader) ListByLead(ctx context.Context, leadID string) ([]models.Communication, error) {
	return m.byLead[leadID], nil
}

func TestLeadServiceCreateDefaults(t *testing.T) {
	store := &mockLeadStore{}
	svc := NewLeadService(store, &mockCommReader{}, nil, nil, nil)

	lead, err := svc.Create(context.Background(), CreateLeadRequest{Name: "Priya", Email: "priya@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusNew, lead.Status)
	assert.Equal(t, 10, lead.Score)
	assert.Equal(t, "manual_entry", lead.SourceDomain)
}

func TestLeadServiceCreateRequiresEmail(t *testing.T) {
	svc := NewLeadService(&mockLeadStore{}, &mockCommReader{}, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateLeadRequest{Name: "Priya"})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), CreateLeadRequest{Name: "Priya", Email: "not-an-email"})
	require.Error(t, err)
}

func TestLeadServiceGetIncludesCommunications(t *testing.T) {
	store := &mockLeadStore{leads: map[string]*models.Lead{"lead-1": {ID: "lead-1", Name: "Priya"}}}
	comms := &mockCommReader{byLead: map[string][]models.Communication{
		"lead-1": {{ID: "comm-1", LeadID: "lead-1", Type: models.CommunicationEmail}},
	}}
	svc := NewLeadService(store, comms, nil, nil, nil)

	detail, err := svc.Get(context.Background(), "lead-1")
	require.NoError(t, err)
	assert.Equal(t, "Priya", detail.Name)
	require.Len(t, detail.Communications, 1)
}

func TestLeadServiceUpdatePatchesOnlyProvidedFields(t *testing.T) {
	store := &mockLeadStore{leads: map[string]*models.Lead{"lead-1": {
		ID: "lead-1", Name: "Priya", Email: "priya@example.com", Score: 40, Status: models.LeadStatusNew,
	}}}
	svc := NewLeadService(store, &mockCommReader{}, nil, nil, nil)

	status := models.LeadStatusConverted
	lead, err := svc.Update(context.Background(), "lead-1", UpdateLeadRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusConverted, lead.Status)
	assert.Equal(t, "Priya", lead.Name)
	assert.Equal(t, 40, lead.Score)
}

func TestLeadServiceGetUnknown(t *testing.T) {
	svc := NewLeadService(&mockLeadStore{}, &mockCommReader{}, nil, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lead not found")
}

type mockDashboardInvalidator struct {
	patterns []string
	err      error
}

func (m *mockDashboardInvalidator) DeleteByPattern(ctx context.Context, pattern string) error {
	if m.err != nil {
		return m.err
	}
	m.patterns = append(m.patterns, pattern)
	return nil
}

func TestLeadServiceWritesInvalidateDashboardCache(t *testing.T) {
	store := &mockLeadStore{}
	cache := &mockDashboardInvalidator{}
	svc := NewLeadService(store, &mockCommReader{}, cache, nil, nil)

	lead, err := svc.Create(context.Background(), CreateLeadRequest{Name: "Priya", Email: "priya@example.com"})
	require.NoError(t, err)

	name := "Priya N"
	_, err = svc.Update(context.Background(), lead.ID, UpdateLeadRequest{Name: &name})
	require.NoError(t, err)

	require.Len(t, cache.patterns, 2)
	assert.Equal(t, "dashboard:*", cache.patterns[0])
	assert.Equal(t, "dashboard:*", cache.patterns[1])
}

func TestLeadServiceCacheFailureDoesNotFailWrite(t *testing.T) {
	cache := &mockDashboardInvalidator{err: errors.New("redis down")}
	svc := NewLeadService(&mockLeadStore{}, &mockCommReader{}, cache, nil, nil)

	_, err := svc.Create(context.Background(), CreateLeadRequest{Name: "Priya", Email: "priya@example.com"})
	require.NoError(t, err)
}
