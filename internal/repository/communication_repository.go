package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careerlab/careerlab-os/internal/models"
)

// CommunicationRepository manages the append-only contact log per lead.
type CommunicationRepository struct {
	db *sqlx.DB
}

// NewCommunicationRepository constructs a CommunicationRepository.
func NewCommunicationRepository(db *sqlx.DB) *CommunicationRepository {
	return &CommunicationRepository{db: db}
}

// Create appends one communication entry. Entries are never mutated.
func (r *CommunicationRepository) Create(ctx context.Context, comm *models.Communication) error {
	if comm.ID == "" {
		comm.ID = uuid.NewString()
	}
	if comm.CreatedAt.IsZero() {
		comm.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO communications (id, lead_id, type, direction, content, is_autonomous, created_at)
        VALUES (:id, :lead_id, :type, :direction, :content, :is_autonomous, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, comm); err != nil {
		return fmt.Errorf("create communication: %w", err)
	}
	return nil
}

// ListByLead returns a lead's contact log, newest first.
func (r *CommunicationRepository) ListByLead(ctx context.Context, leadID string) ([]models.Communication, error) {
	const query = `SELECT id, lead_id, type, direction, content, is_autonomous, created_at
        FROM communications WHERE lead_id = $1 ORDER BY created_at DESC`
	var comms []models.Communication
	if err := r.db.SelectContext(ctx, &comms, query, leadID); err != nil {
		return nil, fmt.Errorf("list communications: %w", err)
	}
	return comms, nil
}
