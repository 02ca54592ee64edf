package models

import "time"

// DashboardStats is the headline counter block on the admin dashboard.
type DashboardStats struct {
	Leads          int          `json:"leads"`
	Users          int          `json:"users"`
	Exams          int          `json:"exams"`
	Revenue        string       `json:"revenue"`
	AverageScore   string       `json:"avg_score"`
	IntegrityRate  string       `json:"integrity"`
	RecentActivity []RecentUser `json:"recent_activity"`
	GeneratedAt    time.Time    `json:"generated_at"`
}

// RecentUser is a trimmed signup entry for the activity feed.
type RecentUser struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	Role      UserRole  `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AnalyticsPoint is one day of lead volume on the acquisition chart.
type AnalyticsPoint struct {
	Name  string `json:"name"`
	Leads int    `json:"leads"`
}

// SystemMetrics is the aggregated runtime snapshot served next to the
// Prometheus endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"avg_request_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
