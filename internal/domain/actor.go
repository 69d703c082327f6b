package domain

import "strings"

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleDispatcher Role = "dispatcher"
	RoleDriver     Role = "driver"
	RoleBilling    Role = "billing"
	RoleSystem     Role = "system"
	RoleViewer     Role = "viewer"
)

// Actor is the caller on whose behalf a mutation runs. It is always passed
// explicitly; nothing reads it from ambient session state.
type Actor struct {
	ID   string
	Role Role
}

// SystemActor is used by scheduled jobs.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

func ParseRole(raw string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch r {
	case RoleAdmin, RoleDispatcher, RoleDriver, RoleBilling, RoleSystem:
		return r
	}
	return RoleViewer
}

var rolePermissions = map[Role]map[LoadStatus]bool{
	RoleDispatcher: {
		StatusPlanned:           true,
		StatusInTransitPickup:   true,
		StatusAtPickup:          true,
		StatusInTransitDelivery: true,
		StatusAtDelivery:        true,
		StatusDelivered:         true,
	},
	RoleDriver: {
		StatusInTransitPickup:   true,
		StatusAtPickup:          true,
		StatusInTransitDelivery: true,
		StatusAtDelivery:        true,
		StatusDelivered:         true,
	},
	RoleBilling: {
		StatusInvoiced:       true,
		StatusPaymentOverdue: true,
		StatusPaid:           true,
	},
	RoleSystem: {
		StatusPaymentOverdue: true,
	},
}

// MayMoveTo reports whether the actor's role is allowed to put a load into
// the target status. The current status is deliberately not consulted.
func (a Actor) MayMoveTo(target LoadStatus) bool {
	if a.Role == RoleAdmin {
		return target.Valid()
	}
	return rolePermissions[a.Role][target]
}

func (a Actor) CanOverride() bool {
	return a.Role == RoleAdmin
}
