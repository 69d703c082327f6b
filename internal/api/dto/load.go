package dto

import (
	"time"

	"tms-load-service/internal/domain"

	"github.com/shopspring/decimal"
)

type LoadResponse struct {
	ID                  string     `json:"id"`
	TenantID            string     `json:"tenant_id"`
	OrderNumber         string     `json:"order_number"`
	Status              string     `json:"status"`
	EquipmentID         string     `json:"equipment_id,omitempty"`
	ConfirmedRate       *string    `json:"confirmed_rate"`
	TotalCost           *string    `json:"total_cost"`
	PickupTimePlanned   *time.Time `json:"pickup_time_planned"`
	PickupTimeActual    *time.Time `json:"pickup_time_actual"`
	DeliveryTimePlanned *time.Time `json:"delivery_time_planned"`
	DeliveryTimeActual  *time.Time `json:"delivery_time_actual"`
	InvoicedAt          *time.Time `json:"invoiced_at"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	Version             int64      `json:"version"`
	NextStatuses        []string   `json:"next_statuses"`
}

type ListLoadsResponse struct {
	Loads []LoadResponse `json:"loads"`
}

type OverrideRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type StatusEventResponse struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ActorID   string    `json:"actor_id"`
	ActorRole string    `json:"actor_role"`
	At        time.Time `json:"at"`
	Version   int64     `json:"version"`
	Override  bool      `json:"override"`
	Reason    string    `json:"reason,omitempty"`
}

type HistoryResponse struct {
	LoadID string                `json:"load_id"`
	Events []StatusEventResponse `json:"events"`
}

func FromLoad(l domain.Load) LoadResponse {
	next := l.Status.NextStatuses()
	names := make([]string, 0, len(next))
	for _, s := range next {
		names = append(names, string(s))
	}

	return LoadResponse{
		ID:                  l.ID,
		TenantID:            l.TenantID,
		OrderNumber:         l.OrderNumber,
		Status:              string(l.Status),
		EquipmentID:         l.EquipmentID,
		ConfirmedRate:       moneyPtr(l.ConfirmedRate),
		TotalCost:           moneyPtr(l.TotalCost),
		PickupTimePlanned:   l.PickupTimePlanned,
		PickupTimeActual:    l.PickupTimeActual,
		DeliveryTimePlanned: l.DeliveryTimePlanned,
		DeliveryTimeActual:  l.DeliveryTimeActual,
		InvoicedAt:          l.InvoicedAt,
		CreatedAt:           l.CreatedAt,
		UpdatedAt:           l.UpdatedAt,
		Version:             l.Version,
		NextStatuses:        names,
	}
}

func FromLoads(loads []domain.Load) []LoadResponse {
	out := make([]LoadResponse, 0, len(loads))
	for _, l := range loads {
		out = append(out, FromLoad(l))
	}
	return out
}

func FromHistory(loadID string, events []domain.LoadStatusChanged) HistoryResponse {
	out := HistoryResponse{LoadID: loadID, Events: make([]StatusEventResponse, 0, len(events))}
	for _, e := range events {
		out.Events = append(out.Events, StatusEventResponse{
			ID:        e.ID,
			From:      string(e.From),
			To:        string(e.To),
			ActorID:   e.ActorID,
			ActorRole: string(e.ActorRole),
			At:        e.At,
			Version:   e.Version,
			Override:  e.Override,
			Reason:    e.Reason,
		})
	}
	return out
}

// Money is rendered as a string with two decimals to keep it exact.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func moneyPtr(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := money(*d)
	return &s
}
