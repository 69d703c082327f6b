package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"tms-load-service/internal/domain"
	"tms-load-service/internal/platform/clock"
	"tms-load-service/internal/platform/metrics"
	"tms-load-service/internal/platform/obs"
	"tms-load-service/internal/ports"
)

const (
	trendMonths        = 6
	recentActivitySize = 5
)

// Aggregate derives the KPI report for one tenant snapshot.
//
// It is a pure function of its arguments: loads may arrive in any order and
// are never modified, and now is the only notion of time used. Weeks start on
// Sunday and months on the 1st, both at midnight in now's location.
func Aggregate(loads []domain.Load, now time.Time) domain.KPISnapshot {
	loc := now.Location()
	weekStart := StartOfWeek(now)
	monthStart := StartOfMonth(now)
	months := TrailingMonths(now, trendMonths)

	trendIndex := make(map[int]int, len(months))
	for i, m := range months {
		trendIndex[monthKey(m, loc)] = i
	}
	trend := make([]domain.MonthCount, len(months))
	for i, m := range months {
		trend[i] = domain.MonthCount{Month: m}
	}

	snap := domain.KPISnapshot{
		GeneratedAt: now,
		TotalLoads:  len(loads),
	}

	byStatus := make(map[domain.LoadStatus]int)
	for _, l := range loads {
		byStatus[l.Status]++

		switch {
		case l.Status.Active():
			snap.ActiveLoads++
		case l.Status.Completed():
			snap.DeliveredLoads++
		}
		if l.Status == domain.StatusPending {
			snap.PendingLoads++
		}
		if l.Status == domain.StatusPaymentOverdue {
			snap.OverdueLoads++
		}

		snap.TotalRevenue = snap.TotalRevenue.Add(l.Revenue())

		if within(l.CreatedAt, monthStart, now) {
			snap.LoadsThisMonth++
		}
		if within(l.CreatedAt, weekStart, now) {
			snap.LoadsThisWeek++
		}
		if i, ok := trendIndex[monthKey(l.CreatedAt, loc)]; ok {
			trend[i].Count++
		}
	}

	snap.MonthlyTrend = trend
	snap.StatusDistribution = statusDistribution(byStatus, snap.TotalLoads)
	snap.CompletionRate = percentOf(snap.DeliveredLoads, snap.TotalLoads)
	snap.RecentActivity = recentActivity(loads, recentActivitySize)

	return snap
}

// statusDistribution returns one share per status present, in lifecycle
// order. Unknown statuses from a data source follow, sorted by name.
func statusDistribution(byStatus map[domain.LoadStatus]int, total int) []domain.StatusShare {
	shares := []domain.StatusShare{}
	if total == 0 {
		return shares
	}

	statuses := make([]domain.LoadStatus, 0, len(byStatus))
	for s := range byStatus {
		statuses = append(statuses, s)
	}
	sort.Slice(statuses, func(i, j int) bool {
		oi, oj := statuses[i].Ordinal(), statuses[j].Ordinal()
		if oi < 0 && oj < 0 {
			return statuses[i] < statuses[j]
		}
		if oi < 0 || oj < 0 {
			return oj < 0
		}
		return oi < oj
	})

	sum := 0.0
	for _, s := range statuses {
		p := percentOf(byStatus[s], total)
		sum += p
		shares = append(shares, domain.StatusShare{Status: s, Count: byStatus[s], Percentage: p})
	}

	// Independent rounding can drift by up to 0.05 per status. When the drift
	// exceeds one tenth, fall back to largest-remainder apportionment so the
	// shares still add up to 100.
	if math.Abs(sum-100) > 0.1+1e-9 {
		apportionTenths(shares, total)
	}

	return shares
}

func apportionTenths(shares []domain.StatusShare, total int) {
	type rem struct {
		idx  int
		frac float64
	}

	tenths := make([]int, len(shares))
	rems := make([]rem, len(shares))
	assigned := 0
	for i, s := range shares {
		exact := float64(s.Count) * 1000 / float64(total)
		tenths[i] = int(math.Floor(exact))
		rems[i] = rem{idx: i, frac: exact - float64(tenths[i])}
		assigned += tenths[i]
	}

	sort.SliceStable(rems, func(i, j int) bool { return rems[i].frac > rems[j].frac })
	for k := 0; k < 1000-assigned && k < len(rems); k++ {
		tenths[rems[k].idx]++
	}

	for i := range shares {
		shares[i].Percentage = float64(tenths[i]) / 10
	}
}

// recentActivity returns the n most recently created loads, newest first.
// Equal timestamps are ordered by id so the result is deterministic.
func recentActivity(loads []domain.Load, n int) []domain.Load {
	sorted := make([]domain.Load, len(loads))
	copy(sorted, loads)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}

	out := make([]domain.Load, len(sorted))
	for i, l := range sorted {
		out[i] = l.Clone()
	}
	return out
}

// percentOf returns part/total as a percentage rounded to one decimal,
// or 0 when total is 0.
func percentOf(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(part) / float64(total) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// AnalyticsService reads one tenant snapshot and aggregates it.
type AnalyticsService struct {
	repo     ports.LoadRepository
	clock    clock.Clock
	location *time.Location
	metrics  *metrics.Collector
}

func NewAnalyticsService(repo ports.LoadRepository, clk clock.Clock, loc *time.Location, m *metrics.Collector) *AnalyticsService {
	if loc == nil {
		loc = time.UTC
	}
	return &AnalyticsService{
		repo:     repo,
		clock:    clk,
		location: loc,
		metrics:  m,
	}
}

// Snapshot performs a single repository read and aggregates it against the
// clock's current time in the configured reporting location.
func (s *AnalyticsService) Snapshot(ctx context.Context, tenantID string, scope domain.Scope) (_ domain.KPISnapshot, err error) {
	defer obs.Time(ctx, "analytics.Snapshot")(&err)
	start := time.Now()

	if tenantID == "" {
		return domain.KPISnapshot{}, &domain.ValidationError{Field: "tenant_id", Reason: "is required"}
	}

	loads, err := s.repo.ListLoads(ctx, tenantID, scope)
	if err != nil {
		return domain.KPISnapshot{}, fmt.Errorf("kpi snapshot: list loads for tenant %s: %w", tenantID, err)
	}

	snap := Aggregate(loads, s.clock.Now().In(s.location))
	s.metrics.ObserveAggregate(time.Since(start).Seconds())
	return snap, nil
}
