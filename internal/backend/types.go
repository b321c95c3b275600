package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Number is a metric value that the backend sends either as a JSON number or
// as a numeric string (Postgres numeric columns serialize as strings).
type Number float64

// UnmarshalJSON accepts numbers, numeric strings and null.
func (n *Number) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*n = 0
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parse number %q: %w", s, err)
		}
		*n = Number(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return err
	}
	*n = Number(v)
	return nil
}

// Float returns the value as float64.
func (n Number) Float() float64 { return float64(n) }

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp parses the handful of layouts Postgres and the edge functions emit.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// ParseTimestamp parses a backend timestamp string.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// ExecutiveOverview mirrors corporate-dashboard/executive_overview.
type ExecutiveOverview struct {
	Analytics      []NetworkAnalytics        `json:"analytics"`
	TotalRevenue   Number                    `json:"totalRevenue"`
	PlatformHealth map[string]PlatformHealth `json:"platformHealth"`
}

// NetworkAnalytics is one row of the network_analytics table.
type NetworkAnalytics struct {
	Date           string `json:"date,omitempty"`
	TotalUsers     Number `json:"total_users"`
	TotalContent   Number `json:"total_content,omitempty"`
	TotalViews     Number `json:"total_views"`
	Revenue        Number `json:"revenue,omitempty"`
	TopPlatform    string `json:"top_platform,omitempty"`
	GrowthRate     Number `json:"growth_rate"`
	EngagementRate Number `json:"engagement_rate"`
}

// PlatformHealth summarizes one platform's health score.
type PlatformHealth struct {
	AvgScore Number `json:"avgScore"`
}

// Latest returns the most recent analytics row, or a zero row.
func (e ExecutiveOverview) Latest() NetworkAnalytics {
	if len(e.Analytics) == 0 {
		return NetworkAnalytics{}
	}
	return e.Analytics[0]
}

// HealthyPlatforms counts platforms scoring above 95.
func (e ExecutiveOverview) HealthyPlatforms() int {
	healthy := 0
	for _, h := range e.PlatformHealth {
		if h.AvgScore > 95 {
			healthy++
		}
	}
	return healthy
}

// PlatformNames returns platform keys in sorted order.
func (e ExecutiveOverview) PlatformNames() []string {
	return sortedKeys(e.PlatformHealth)
}

// SystemStatus mirrors corporate-dashboard/system_status.
type SystemStatus struct {
	PlatformStatus map[string]PlatformStatus `json:"platformStatus"`
}

// PlatformStatus aggregates per-service health for one platform.
type PlatformStatus struct {
	AvgPerformance Number          `json:"avgPerformance"`
	OverallStatus  string          `json:"overallStatus"`
	Services       []ServiceHealth `json:"services"`
}

// ServiceHealth is one row of the system_health table.
type ServiceHealth struct {
	ServiceName      string     `json:"service_name"`
	Status           string     `json:"status"`
	ResponseTime     Number     `json:"response_time"`
	UptimePercentage Number     `json:"uptime_percentage"`
	PerformanceScore Number     `json:"performance_score"`
	ErrorCount       Number     `json:"error_count,omitempty"`
	LastCheck        *Timestamp `json:"last_check"`
}

// PlatformNames returns platform keys in sorted order.
func (s SystemStatus) PlatformNames() []string {
	return sortedKeys(s.PlatformStatus)
}

// BusinessIntelligence mirrors corporate-dashboard/business_intelligence.
type BusinessIntelligence struct {
	Revenue    []PlatformMetric `json:"revenue"`
	UserGrowth []PlatformMetric `json:"userGrowth"`
	Engagement []PlatformMetric `json:"engagement"`
}

// PlatformMetric is one row of the business_metrics table.
type PlatformMetric struct {
	PlatformID  string `json:"platform_id"`
	MetricType  string `json:"metric_type,omitempty"`
	MetricValue Number `json:"metric_value"`
	Currency    string `json:"currency,omitempty"`
	TimePeriod  string `json:"time_period,omitempty"`
}

// TotalRevenue sums revenue metrics across platforms.
func (b BusinessIntelligence) TotalRevenue() float64 {
	return sumMetrics(b.Revenue)
}

// TotalUsers sums user growth metrics, truncating each to an integer.
func (b BusinessIntelligence) TotalUsers() int64 {
	var total int64
	for _, m := range b.UserGrowth {
		total += int64(m.MetricValue)
	}
	return total
}

// AverageEngagement is the mean engagement metric, zero when empty.
func (b BusinessIntelligence) AverageEngagement() float64 {
	if len(b.Engagement) == 0 {
		return 0
	}
	return sumMetrics(b.Engagement) / float64(len(b.Engagement))
}

// RealTimeMetrics mirrors mission-control/real_time_metrics.
type RealTimeMetrics struct {
	NetworkOverview NetworkOverview `json:"networkOverview"`
	Alerts          []Alert         `json:"alerts"`
}

// NetworkOverview holds network-wide headline numbers.
type NetworkOverview struct {
	TotalPlatforms  Number `json:"totalPlatforms"`
	PlatformHealth  Number `json:"platformHealth"`
	AvgResponseTime Number `json:"avgResponseTime"`
	TotalViews      Number `json:"totalViews"`
}

// Alert is an active service alert.
type Alert struct {
	Platform    string     `json:"platform"`
	Service     string     `json:"service"`
	Status      string     `json:"status"`
	Performance Number     `json:"performance"`
	Timestamp   *Timestamp `json:"timestamp"`
}

// AdminList mirrors admin-management/get_admins.
type AdminList struct {
	Admins []AdminRecord `json:"admins"`
}

// AdminRecord is a corporate administrator.
type AdminRecord struct {
	ID             string          `json:"id"`
	Email          string          `json:"email"`
	Name           string          `json:"name"`
	Role           string          `json:"role"`
	Permissions    map[string]bool `json:"permissions"`
	PlatformAccess []string        `json:"platform_access"`
	LastLogin      *Timestamp      `json:"last_login,omitempty"`
	CreatedAt      Timestamp       `json:"created_at"`
	UpdatedAt      *Timestamp      `json:"updated_at,omitempty"`
	IsActive       bool            `json:"is_active"`
}

// HasPlatform reports whether the admin may access the given platform.
func (a AdminRecord) HasPlatform(platform string) bool {
	for _, p := range a.PlatformAccess {
		if p == platform {
			return true
		}
	}
	return false
}

// Find returns the admin with the given id.
func (l AdminList) Find(id string) (AdminRecord, bool) {
	for _, a := range l.Admins {
		if a.ID == id {
			return a, true
		}
	}
	return AdminRecord{}, false
}

// Filter returns admins whose name or email contains search (case-insensitive)
// and whose role equals role when role is non-empty.
func (l AdminList) Filter(search, role string) []AdminRecord {
	needle := strings.ToLower(strings.TrimSpace(search))
	var out []AdminRecord
	for _, a := range l.Admins {
		if role != "" && a.Role != role {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(a.Name), needle) &&
			!strings.Contains(strings.ToLower(a.Email), needle) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Roles returns the distinct roles in first-seen order.
func (l AdminList) Roles() []string {
	seen := make(map[string]bool)
	var roles []string
	for _, a := range l.Admins {
		if seen[a.Role] {
			continue
		}
		seen[a.Role] = true
		roles = append(roles, a.Role)
	}
	return roles
}

// AdminInput is the adminData payload for create_admin and update_admin.
type AdminInput struct {
	ID             string          `json:"id,omitempty"`
	Email          string          `json:"email,omitempty"`
	Name           string          `json:"name,omitempty"`
	Role           string          `json:"role,omitempty"`
	Permissions    map[string]bool `json:"permissions,omitempty"`
	PlatformAccess []string        `json:"platform_access,omitempty"`
	IsActive       *bool           `json:"is_active,omitempty"`
}

func sumMetrics(metrics []PlatformMetric) float64 {
	var total float64
	for _, m := range metrics {
		total += float64(m.MetricValue)
	}
	return total
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
