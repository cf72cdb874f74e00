package insights

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dukapulse/dukapulse/internal/domain/alerts"
	"github.com/dukapulse/dukapulse/internal/domain/snapshot"
)

// Impact grades how much an insight matters to the business
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

func (i Impact) weight() int {
	switch i {
	case ImpactHigh:
		return 3
	case ImpactMedium:
		return 2
	case ImpactLow:
		return 1
	default:
		return 0
	}
}

// Insight is a stateless observation derived from the snapshot. Unlike
// alerts, insights carry no acknowledgement or expiry lifecycle: the full
// list is recomputed every tick and replaces the previous one.
type Insight struct {
	ID         string          `json:"id"`
	Kind       alerts.Kind     `json:"kind"`
	Category   alerts.Category `json:"category"`
	Impact     Impact          `json:"impact"`
	Confidence int             `json:"confidence"` // 0-100
	Title      string          `json:"title"`
	Message    string          `json:"message"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Generate derives the insight list from a snapshot. Pure function of
// (snapshot, now); a zero growth rate crosses neither growth threshold and
// emits nothing.
func Generate(snap snapshot.Snapshot, now time.Time) []Insight {
	s := snap.Sanitized()

	var out []Insight

	growth := s.Sales.GrowthRate
	switch {
	case growth > 20:
		out = append(out, Insight{
			ID:         "sales-growth-surge",
			Kind:       alerts.KindSuccess,
			Category:   alerts.CategorySales,
			Impact:     ImpactHigh,
			Confidence: growthConfidence(growth),
			Title:      "Sales Growth Surge",
			Message:    fmt.Sprintf("Sales are up %.1f%% versus the prior period. Consider extending current promotions.", growth),
			CreatedAt:  now,
		})
	case growth < -10:
		out = append(out, Insight{
			ID:         "sales-growth-decline",
			Kind:       alerts.KindWarning,
			Category:   alerts.CategorySales,
			Impact:     ImpactHigh,
			Confidence: growthConfidence(growth),
			Title:      "Sales Decline Detected",
			Message:    fmt.Sprintf("Sales are down %.1f%% versus the prior period. Review pricing and stock availability.", math.Abs(growth)),
			CreatedAt:  now,
		})
	}

	if s.Inventory.CriticalStock > 0 {
		out = append(out, Insight{
			ID:         "stockout-revenue-risk",
			Kind:       alerts.KindWarning,
			Category:   alerts.CategoryInventory,
			Impact:     ImpactHigh,
			Confidence: 90,
			Title:      "Stockout Revenue Risk",
			Message:    fmt.Sprintf("%d critical-stock items risk lost sales until restocked.", s.Inventory.CriticalStock),
			CreatedAt:  now,
		})
	}

	if s.Customers.NewToday >= 5 {
		out = append(out, Insight{
			ID:         "loyalty-enrollment-opportunity",
			Kind:       alerts.KindInfo,
			Category:   alerts.CategoryCustomers,
			Impact:     ImpactMedium,
			Confidence: 75,
			Title:      "Loyalty Enrollment Opportunity",
			Message:    fmt.Sprintf("%d new customers today are prime candidates for the loyalty program.", s.Customers.NewToday),
			CreatedAt:  now,
		})
	}

	// Time-of-day observations mirror the floor staff's rhythm.
	hour := now.Hour()
	if hour >= 12 && hour < 14 {
		out = append(out, Insight{
			ID:         "lunch-rush-staffing",
			Kind:       alerts.KindInfo,
			Category:   alerts.CategoryOperations,
			Impact:     ImpactMedium,
			Confidence: 70,
			Title:      "Lunch Rush Window",
			Message:    "Foot traffic typically peaks between 12:00 and 14:00. Keep the counter fully staffed.",
			CreatedAt:  now,
		})
	}
	if hour >= 9 && hour < 11 && s.Sales.Today == 0 {
		out = append(out, Insight{
			ID:         "slow-morning-sales",
			Kind:       alerts.KindInfo,
			Category:   alerts.CategorySales,
			Impact:     ImpactLow,
			Confidence: 65,
			Title:      "Slow Morning",
			Message:    "No sales recorded yet this morning. A social post or flash offer can prime the day.",
			CreatedAt:  now,
		})
	}

	if s.Devices.InRepair > 0 && s.Devices.Overdue == 0 {
		out = append(out, Insight{
			ID:         "repair-pipeline-healthy",
			Kind:       alerts.KindSuccess,
			Category:   alerts.CategoryOperations,
			Impact:     ImpactLow,
			Confidence: 80,
			Title:      "Repair Pipeline On Track",
			Message:    fmt.Sprintf("All %d devices in repair are within their expected completion dates.", s.Devices.InRepair),
			CreatedAt:  now,
		})
	}

	return out
}

// Dedupe collapses duplicate IDs, last write wins. Positions are stable:
// a later duplicate replaces the value at the first occurrence's slot.
func Dedupe(list []Insight) []Insight {
	out := make([]Insight, 0, len(list))
	seen := make(map[string]int, len(list))
	for _, ins := range list {
		if idx, ok := seen[ins.ID]; ok {
			out[idx] = ins
			continue
		}
		seen[ins.ID] = len(out)
		out = append(out, ins)
	}
	return out
}

// Rank orders insights for display: impact descending, then confidence
// descending. Stable, so equal-key insights keep insertion order.
func Rank(list []Insight) []Insight {
	out := make([]Insight, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		wi, wj := out[i].Impact.weight(), out[j].Impact.weight()
		if wi != wj {
			return wi > wj
		}
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

// growthConfidence scales confidence with the magnitude of the growth
// signal, capped to a sane band.
func growthConfidence(growth float64) int {
	c := 70 + int(math.Abs(growth)/2)
	if c > 95 {
		c = 95
	}
	return c
}
