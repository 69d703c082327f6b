package dto

import (
	"time"

	"tms-load-service/internal/domain"
)

type StatusShareResponse struct {
	Status     string  `json:"status"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type MonthCountResponse struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type KPIResponse struct {
	GeneratedAt        time.Time             `json:"generated_at"`
	TotalLoads         int                   `json:"total_loads"`
	ActiveLoads        int                   `json:"active_loads"`
	DeliveredLoads     int                   `json:"delivered_loads"`
	PendingLoads       int                   `json:"pending_loads"`
	OverdueLoads       int                   `json:"overdue_loads"`
	TotalRevenue       string                `json:"total_revenue"`
	LoadsThisMonth     int                   `json:"loads_this_month"`
	LoadsThisWeek      int                   `json:"loads_this_week"`
	StatusDistribution []StatusShareResponse `json:"status_distribution"`
	MonthlyTrend       []MonthCountResponse  `json:"monthly_trend"`
	CompletionRate     float64               `json:"completion_rate"`
	RecentActivity     []LoadResponse        `json:"recent_activity"`
}

func FromKPISnapshot(s domain.KPISnapshot) KPIResponse {
	dist := make([]StatusShareResponse, 0, len(s.StatusDistribution))
	for _, d := range s.StatusDistribution {
		dist = append(dist, StatusShareResponse{Status: string(d.Status), Count: d.Count, Percentage: d.Percentage})
	}

	trend := make([]MonthCountResponse, 0, len(s.MonthlyTrend))
	for _, m := range s.MonthlyTrend {
		trend = append(trend, MonthCountResponse{Month: m.Month.Format("2006-01"), Count: m.Count})
	}

	return KPIResponse{
		GeneratedAt:        s.GeneratedAt,
		TotalLoads:         s.TotalLoads,
		ActiveLoads:        s.ActiveLoads,
		DeliveredLoads:     s.DeliveredLoads,
		PendingLoads:       s.PendingLoads,
		OverdueLoads:       s.OverdueLoads,
		TotalRevenue:       money(s.TotalRevenue),
		LoadsThisMonth:     s.LoadsThisMonth,
		LoadsThisWeek:      s.LoadsThisWeek,
		StatusDistribution: dist,
		MonthlyTrend:       trend,
		CompletionRate:     s.CompletionRate,
		RecentActivity:     FromLoads(s.RecentActivity),
	}
}
