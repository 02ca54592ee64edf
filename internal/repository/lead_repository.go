package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careerlab/careerlab-os/internal/models"
)

// LeadRepository manages persistence for CRM leads.
type LeadRepository struct {
	db *sqlx.DB
}

// NewLeadRepository constructs a LeadRepository.
func NewLeadRepository(db *sqlx.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

const leadColumns = "id, name, email, phone, status, score, persona, source_domain, ai_summary, created_at, updated_at"

// List returns leads matching the provided filters.
func (r *LeadRepository) List(ctx context.Context, filter models.LeadFilter) ([]models.Lead, int, error) {
	base := "FROM leads"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"name":       "name",
		"score":      "score",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", leadColumns, base, column, order, size, offset)

	var leads []models.Lead
	if err := r.db.SelectContext(ctx, &leads, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}
	return leads, total, nil
}

// FindByID fetches a single lead.
func (r *LeadRepository) FindByID(ctx context.Context, id string) (*models.Lead, error) {
	query := fmt.Sprintf("SELECT %s FROM leads WHERE id = $1", leadColumns)
	var lead models.Lead
	if err := r.db.GetContext(ctx, &lead, query, id); err != nil {
		return nil, err
	}
	return &lead, nil
}

// Create inserts a new lead record.
func (r *LeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now
	const query = `INSERT INTO leads (id, name, email, phone, status, score, persona, source_domain, ai_summary, created_at, updated_at)
        VALUES (:id, :name, :email, :phone, :status, :score, :persona, :source_domain, :ai_summary, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lead); err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	return nil
}

// Update modifies an existing lead.
func (r *LeadRepository) Update(ctx context.Context, lead *models.Lead) error {
	lead.UpdatedAt = time.Now().UTC()
	const query = `UPDATE leads SET name = :name, email = :email, phone = :phone, status = :status, score = :score,
        persona = :persona, source_domain = :source_domain, ai_summary = :ai_summary, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, lead); err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	return nil
}

// SaveAnalysis writes the validated classification fields onto a lead.
func (r *LeadRepository) SaveAnalysis(ctx context.Context, id string, analysis models.LeadAnalysis) error {
	const query = `UPDATE leads SET persona = $2, score = $3, ai_summary = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, analysis.Persona, analysis.Score, analysis.Summary, time.Now().UTC()); err != nil {
		return fmt.Errorf("save lead analysis: %w", err)
	}
	return nil
}

// ClaimQualified atomically moves up to limit qualifying leads from NEW to
// PROCESSING and returns them oldest-first. Two concurrent batch triggers
// can never claim the same lead.
func (r *LeadRepository) ClaimQualified(ctx context.Context, minScore, limit int) ([]models.Lead, error) {
	query := fmt.Sprintf(`UPDATE leads SET status = $1, updated_at = $2
        WHERE id IN (
            SELECT id FROM leads
            WHERE status = $3 AND score >= $4
            ORDER BY created_at ASC
            LIMIT $5
            FOR UPDATE SKIP LOCKED
        )
        RETURNING %s`, leadColumns)

	var leads []models.Lead
	if err := r.db.SelectContext(ctx, &leads, query,
		models.LeadStatusProcessing, time.Now().UTC(), models.LeadStatusNew, minScore, limit); err != nil {
		return nil, fmt.Errorf("claim qualified leads: %w", err)
	}
	return leads, nil
}

// SetStatus moves a lead to the given funnel status.
func (r *LeadRepository) SetStatus(ctx context.Context, id string, status models.LeadStatus) error {
	const query = `UPDATE leads SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("set lead status: %w", err)
	}
	return nil
}

// RecentSnapshot returns a trimmed view of the newest leads for the
// assistant's context window.
func (r *LeadRepository) RecentSnapshot(ctx context.Context, limit int) ([]models.Lead, error) {
	query := fmt.Sprintf("SELECT %s FROM leads ORDER BY created_at DESC LIMIT $1", leadColumns)
	var leads []models.Lead
	if err := r.db.SelectContext(ctx, &leads, query, limit); err != nil {
		return nil, fmt.Errorf("recent leads snapshot: %w", err)
	}
	return leads, nil
}
