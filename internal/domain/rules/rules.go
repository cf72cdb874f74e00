package rules

import (
	"fmt"
	"time"

	"github.com/dukapulse/dukapulse/internal/domain/alerts"
	"github.com/dukapulse/dukapulse/internal/domain/snapshot"
)

// Engine maps a metrics snapshot to alert candidates. Evaluation is a pure
// function of (snapshot, now): every rule is an independent predicate that
// fires at most one candidate with a fixed ID, so re-fires are recognized
// by the lifecycle store. The engine never panics; the snapshot is
// sanitized before any predicate runs.
type Engine struct {
	thresholds Thresholds
}

// NewEngine creates a rule engine with the given trigger thresholds.
func NewEngine(t Thresholds) *Engine {
	return &Engine{thresholds: t}
}

// Evaluate runs every rule against the snapshot and returns the candidates
// that fired. The time argument drives the time-of-day sensitive rules and
// must come from the caller, never from a global clock.
func (e *Engine) Evaluate(snap snapshot.Snapshot, now time.Time) []alerts.Alert {
	s := snap.Sanitized()
	t := e.thresholds

	var out []alerts.Alert

	if s.Inventory.CriticalStock > 0 {
		out = append(out, alerts.Alert{
			ID:          "critical-stock",
			Kind:        alerts.KindCritical,
			Category:    alerts.CategoryInventory,
			Priority:    alerts.PriorityHigh,
			Title:       "Critical Stock Alert",
			Message:     fmt.Sprintf("%d items are critically low or out of stock. Immediate action required.", s.Inventory.CriticalStock),
			Actionable:  true,
			ActionLabel: "Restock Now",
		})
	}

	if s.Inventory.LowStock > t.Inventory.LowStockMin {
		out = append(out, alerts.Alert{
			ID:                 "low-stock-warning",
			Kind:               alerts.KindWarning,
			Category:           alerts.CategoryInventory,
			Priority:           alerts.PriorityMedium,
			Title:              "Low Stock Warning",
			Message:            fmt.Sprintf("%d items are running low. Consider restocking soon.", s.Inventory.LowStock),
			AutoExpire:         true,
			ExpireAfterMinutes: t.Inventory.LowStockExpireMins,
			Actionable:         true,
			ActionLabel:        "View Inventory",
		})
	}

	if s.Sales.Today < t.Sales.DailyTarget && now.Hour() >= t.Sales.QuietFromHour {
		out = append(out, alerts.Alert{
			ID:          "low-sales-performance",
			Kind:        alerts.KindWarning,
			Category:    alerts.CategorySales,
			Priority:    alerts.PriorityMedium,
			Title:       "Low Sales Performance",
			Message:     fmt.Sprintf("Daily sales target not met. Only TZS %.0f achieved today.", s.Sales.Today),
			Actionable:  true,
			ActionLabel: "View Promotions",
		})
	}

	if s.Devices.Overdue > 0 {
		out = append(out, alerts.Alert{
			ID:          "overdue-devices",
			Kind:        alerts.KindCritical,
			Category:    alerts.CategoryOperations,
			Priority:    alerts.PriorityHigh,
			Title:       "Overdue Devices",
			Message:     fmt.Sprintf("%d devices are past their expected completion date.", s.Devices.Overdue),
			Actionable:  true,
			ActionLabel: "View Overdue",
		})
	}

	if s.Devices.Completed > t.Devices.CompletedMilestone {
		out = append(out, alerts.Alert{
			ID:                 "high-completion-rate",
			Kind:               alerts.KindSuccess,
			Category:           alerts.CategoryOperations,
			Priority:           alerts.PriorityLow,
			Title:              "Excellent Performance!",
			Message:            fmt.Sprintf("%d devices completed today. Great job!", s.Devices.Completed),
			AutoExpire:         true,
			ExpireAfterMinutes: t.Devices.CompletedExpireMins,
		})
	}

	if s.Customers.NewToday >= t.Customers.NewTodayMilestone {
		out = append(out, alerts.Alert{
			ID:                 "customer-milestone",
			Kind:               alerts.KindSuccess,
			Category:           alerts.CategoryCustomers,
			Priority:           alerts.PriorityLow,
			Title:              "Customer Acquisition Milestone",
			Message:            fmt.Sprintf("Acquired %d new customers today!", s.Customers.NewToday),
			AutoExpire:         true,
			ExpireAfterMinutes: t.Customers.MilestoneExpireMins,
		})
	}

	if s.Employees.Total > 0 && float64(s.Employees.Present) < float64(s.Employees.Total)*t.Employees.AttendanceRatio {
		out = append(out, alerts.Alert{
			ID:          "low-attendance",
			Kind:        alerts.KindWarning,
			Category:    alerts.CategoryOperations,
			Priority:    alerts.PriorityMedium,
			Title:       "Low Employee Attendance",
			Message:     fmt.Sprintf("Only %d out of %d employees present today.", s.Employees.Present, s.Employees.Total),
			Actionable:  true,
			ActionLabel: "View Attendance",
		})
	}

	out = append(out, e.systemReminders(now)...)

	return out
}

// systemReminders emits the maintenance reminders on a deterministic daily
// schedule. Each reminder has a fixed time-of-day window; within the window
// the candidate re-fires every tick, which the store merges into a single
// instance, and auto-expiry retires it after the window closes.
func (e *Engine) systemReminders(now time.Time) []alerts.Alert {
	t := e.thresholds.System

	var out []alerts.Alert

	if now.Hour() >= t.BackupFromHour && now.Hour() < t.BackupToHour {
		out = append(out, alerts.Alert{
			ID:                 "backup-due",
			Kind:               alerts.KindInfo,
			Category:           alerts.CategorySystem,
			Priority:           alerts.PriorityLow,
			Title:              "Backup Due",
			Message:            "Daily backup is due. Consider running a backup now.",
			AutoExpire:         true,
			ExpireAfterMinutes: t.BackupExpireMins,
		})
	}

	if int(now.Weekday()) == t.UpdateCheckWeekday && now.Hour() >= t.UpdateFromHour && now.Hour() < t.UpdateToHour {
		out = append(out, alerts.Alert{
			ID:          "software-update",
			Kind:        alerts.KindInfo,
			Category:    alerts.CategorySystem,
			Priority:    alerts.PriorityLow,
			Title:       "Software Update Available",
			Message:     "A new version of the POS system is available.",
			Actionable:  true,
			ActionLabel: "Update Now",
		})
	}

	return out
}
