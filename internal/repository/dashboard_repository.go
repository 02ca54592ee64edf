package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/careerlab/careerlab-os/internal/models"
)

// DashboardRepository aggregates the read models behind the admin
// dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs a DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Counts holds the headline totals.
type Counts struct {
	Leads    int `db:"leads"`
	Users    int `db:"users"`
	Exams    int `db:"exams"`
	HotLeads int `db:"hot_leads"`
}

// Counts returns the entity totals plus the hot-lead count above the
// given score.
func (r *DashboardRepository) Counts(ctx context.Context, hotScore int) (*Counts, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM leads) AS leads,
        (SELECT COUNT(*) FROM users) AS users,
        (SELECT COUNT(*) FROM exams) AS exams,
        (SELECT COUNT(*) FROM leads WHERE score >= $1) AS hot_leads`
	var counts Counts
	if err := r.db.GetContext(ctx, &counts, query, hotScore); err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}
	return &counts, nil
}

// ResultStats summarises grading outcomes.
type ResultStats struct {
	Total        int     `db:"total"`
	AverageScore float64 `db:"avg_score"`
	Clean        int     `db:"clean"`
}

// ResultStats returns attempt volume, mean score and the count of
// attempts without integrity flags.
func (r *DashboardRepository) ResultStats(ctx context.Context) (*ResultStats, error) {
	const query = `SELECT COUNT(*) AS total,
        COALESCE(AVG(score), 0) AS avg_score,
        COUNT(*) FILTER (WHERE COALESCE(array_length(security_flags, 1), 0) = 0) AS clean
        FROM exam_results`
	var stats ResultStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("result stats: %w", err)
	}
	return &stats, nil
}

// RecentUsers returns the newest signups for the activity feed.
func (r *DashboardRepository) RecentUsers(ctx context.Context, limit int) ([]models.RecentUser, error) {
	const query = `SELECT id, full_name, email, role, created_at FROM users ORDER BY created_at DESC LIMIT $1`
	var users []models.RecentUser
	if err := r.db.SelectContext(ctx, &users, query, limit); err != nil {
		return nil, fmt.Errorf("recent users: %w", err)
	}
	return users, nil
}

// DailyLeadCount is one day of lead acquisition.
type DailyLeadCount struct {
	Day   time.Time `db:"day"`
	Count int       `db:"count"`
}

// LeadCountsByDay returns per-day lead volume for the trailing window,
// oldest day first. Days without leads are filled by the series join.
func (r *DashboardRepository) LeadCountsByDay(ctx context.Context, days int) ([]DailyLeadCount, error) {
	const query = `SELECT d.day AS day, COUNT(l.id) AS count
        FROM generate_series(
            date_trunc('day', NOW() AT TIME ZONE 'UTC') - ($1 - 1) * INTERVAL '1 day',
            date_trunc('day', NOW() AT TIME ZONE 'UTC'),
            INTERVAL '1 day'
        ) AS d(day)
        LEFT JOIN leads l ON date_trunc('day', l.created_at) = d.day
        GROUP BY d.day
        ORDER BY d.day ASC`
	var rows []DailyLeadCount
	if err := r.db.SelectContext(ctx, &rows, query, days); err != nil {
		return nil, fmt.Errorf("lead counts by day: %w", err)
	}
	return rows, nil
}
