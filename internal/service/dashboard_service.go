package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/careerlab/careerlab-os/internal/models"
	"github.com/careerlab/careerlab-os/internal/repository"
	"github.com/careerlab/careerlab-os/pkg/config"
	appErrors "github.com/careerlab/careerlab-os/pkg/errors"
)

type dashboardRepository interface {
	Counts(ctx context.Context, hotScore int) (*repository.Counts, error)
	ResultStats(ctx context.Context) (*repository.ResultStats, error)
	RecentUsers(ctx context.Context, limit int) ([]models.RecentUser, error)
	LeadCountsByDay(ctx context.Context, days int) ([]repository.DailyLeadCount, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

const (
	dashboardStatsKey     = "dashboard:stats"
	dashboardAnalyticsKey = "dashboard:analytics"

	hotLeadScore      = 70
	revenuePerHotLead = 150
	recentUserLimit   = 5
	analyticsDays     = 7
)

// DashboardService assembles the admin dashboard read models, with a
// short Redis cache in front of the aggregate queries.
type DashboardService struct {
	repo   dashboardRepository
	cache  dashboardCache
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time
}

// NewDashboardService constructs the dashboard service. cache may be nil,
// in which case every call hits the database.
func NewDashboardService(repo dashboardRepository, cache dashboardCache, logger *zap.Logger, cfg config.DashboardConfig) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &DashboardService{
		repo:   repo,
		cache:  cache,
		logger: logger,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Stats returns the headline dashboard block. The second return value
// reports whether the payload came from cache.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, bool, error) {
	var cached models.DashboardStats
	if s.cacheGet(ctx, dashboardStatsKey, &cached) {
		return &cached, true, nil
	}

	counts, err := s.repo.Counts(ctx, hotLeadScore)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard counts")
	}
	resultStats, err := s.repo.ResultStats(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result stats")
	}
	recent, err := s.repo.RecentUsers(ctx, recentUserLimit)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent users")
	}

	stats := &models.DashboardStats{
		Leads:          counts.Leads,
		Users:          counts.Users,
		Exams:          counts.Exams,
		Revenue:        formatRevenue(counts.HotLeads * revenuePerHotLead),
		AverageScore:   fmt.Sprintf("%.1f", resultStats.AverageScore),
		IntegrityRate:  formatIntegrity(resultStats.Clean, resultStats.Total),
		RecentActivity: recent,
		GeneratedAt:    s.now(),
	}
	s.cacheSet(ctx, dashboardStatsKey, stats)
	return stats, false, nil
}

// Analytics returns the trailing lead-acquisition chart, one point per
// day, oldest first.
func (s *DashboardService) Analytics(ctx context.Context) ([]models.AnalyticsPoint, bool, error) {
	var cached []models.AnalyticsPoint
	if s.cacheGet(ctx, dashboardAnalyticsKey, &cached) {
		return cached, true, nil
	}

	rows, err := s.repo.LeadCountsByDay(ctx, analyticsDays)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lead analytics")
	}

	points := make([]models.AnalyticsPoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, models.AnalyticsPoint{Name: row.Day.Format("Mon"), Leads: row.Count})
	}
	s.cacheSet(ctx, dashboardAnalyticsKey, points)
	return points, false, nil
}

func (s *DashboardService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *DashboardService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// formatRevenue renders pipeline value the way the dashboard displays it,
// in thousands of rupees.
func formatRevenue(amount int) string {
	return fmt.Sprintf("₹%.1fK", float64(amount)/1000)
}

func formatIntegrity(clean, total int) string {
	if total == 0 {
		return "100%"
	}
	return fmt.Sprintf("%.0f%%", float64(clean)/float64(total)*100)
}
