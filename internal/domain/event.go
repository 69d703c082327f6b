package domain

import "time"

// LoadStatusChanged records one successful lifecycle transition. It feeds the
// status history and downstream billing triggers.
type LoadStatusChanged struct {
	ID        string     `json:"id"`
	LoadID    string     `json:"load_id"`
	TenantID  string     `json:"tenant_id"`
	From      LoadStatus `json:"from"`
	To        LoadStatus `json:"to"`
	ActorID   string     `json:"actor_id"`
	ActorRole Role       `json:"actor_role"`
	At        time.Time  `json:"at"`
	Version   int64      `json:"version"`
	Override  bool       `json:"override,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

// TriggersBilling reports whether downstream billing must react to the event.
func (e LoadStatusChanged) TriggersBilling() bool {
	return e.To == StatusInvoiced
}
