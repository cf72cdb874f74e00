package alerts

import "time"

// Kind classifies an alert's visual severity
type Kind string

const (
	KindCritical Kind = "critical"
	KindWarning  Kind = "warning"
	KindInfo     Kind = "info"
	KindSuccess  Kind = "success"
)

// Category tags the business domain an alert belongs to
type Category string

const (
	CategoryInventory  Category = "inventory"
	CategorySales      Category = "sales"
	CategoryCustomers  Category = "customers"
	CategoryOperations Category = "operations"
	CategorySystem     Category = "system"
)

// Priority orders alerts for display
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Weight maps a priority to its sort rank (higher sorts first). Unknown
// priorities rank below low so malformed candidates sink instead of
// crowding out real alerts.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Alert is a stateful notification derived from a business-rule threshold
// breach. The ID is assigned by the rule that produced it and is stable
// across ticks: the same condition always yields the same ID, which is how
// a re-fire is recognized as the same alert.
type Alert struct {
	ID                 string    `json:"id"`
	Kind               Kind      `json:"kind"`
	Category           Category  `json:"category"`
	Priority           Priority  `json:"priority"`
	Title              string    `json:"title"`
	Message            string    `json:"message"`
	CreatedAt          time.Time `json:"created_at"`
	Acknowledged       bool      `json:"acknowledged"`
	AutoExpire         bool      `json:"auto_expire,omitempty"`
	ExpireAfterMinutes int       `json:"expire_after_minutes,omitempty"`
	Actionable         bool      `json:"actionable"`
	ActionLabel        string    `json:"action_label,omitempty"`
}

// Expired reports whether the alert's auto-expiry window has elapsed.
// Alerts without AutoExpire never expire automatically.
func (a Alert) Expired(now time.Time) bool {
	if !a.AutoExpire || a.ExpireAfterMinutes <= 0 {
		return false
	}
	deadline := a.CreatedAt.Add(time.Duration(a.ExpireAfterMinutes) * time.Minute)
	return !now.Before(deadline)
}
