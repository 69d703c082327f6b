package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// KPISnapshot is the derived report for one tenant at one instant.
// It is recomputed from a load snapshot on every read and never stored.
type KPISnapshot struct {
	GeneratedAt        time.Time
	TotalLoads         int
	ActiveLoads        int
	DeliveredLoads     int
	PendingLoads       int
	OverdueLoads       int
	TotalRevenue       decimal.Decimal
	LoadsThisMonth     int
	LoadsThisWeek      int
	StatusDistribution []StatusShare
	MonthlyTrend       []MonthCount
	CompletionRate     float64
	RecentActivity     []Load
}

type StatusShare struct {
	Status     LoadStatus
	Count      int
	Percentage float64
}

// MonthCount is one calendar-month bucket of the trend. Month is the first
// instant of the month in the location of the reference time.
type MonthCount struct {
	Month time.Time
	Count int
}
