package forecast

import (
	"math"
	"time"

	"github.com/dukapulse/dukapulse/internal/domain/snapshot"
)

// DefaultHorizonDays is how far ahead projections extend.
const DefaultHorizonDays = 7

// Point is one day's projection for a tracked metric. Confidence is
// non-increasing with distance into the future, floored at 60.
type Point struct {
	Period         string  `json:"period"`
	ProjectedValue float64 `json:"projected_value"`
	Confidence     int     `json:"confidence"`
}

// Trend summarizes where one KPI is heading, independent of the others.
type Trend struct {
	Metric        string  `json:"metric"`
	Current       float64 `json:"current"`
	Predicted     float64 `json:"predicted"`
	PercentChange float64 `json:"percent_change"`
	Direction     string  `json:"direction"` // up, down, stable
	Confidence    int     `json:"confidence"`
}

// Project extrapolates a base value over the horizon, applying weekday
// seasonality. Weekends scale up, mid-week scales down; confidence decays
// 5 points per day from 90 down to the 60 floor.
func Project(base float64, horizonDays int, now time.Time) []Point {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	base = sanitize(base)

	out := make([]Point, 0, horizonDays)
	for i := 0; i < horizonDays; i++ {
		day := now.AddDate(0, 0, i)
		out = append(out, Point{
			Period:         day.Format("Mon"),
			ProjectedValue: math.Round(base * seasonality(day.Weekday())),
			Confidence:     dayConfidence(i),
		})
	}
	return out
}

// ProjectAll produces the projection series for each tracked metric.
func ProjectAll(snap snapshot.Snapshot, horizonDays int, now time.Time) map[string][]Point {
	s := snap.Sanitized()
	return map[string][]Point{
		"sales":     Project(s.Sales.Today, horizonDays, now),
		"customers": Project(float64(s.Customers.NewToday), horizonDays, now),
		"repairs":   Project(float64(s.Devices.InRepair), horizonDays, now),
	}
}

// assumed growth per KPI when no historical signal is available
const (
	assumedSalesGrowth    = 5.0
	assumedCustomerGrowth = 8.0
	assumedRepairGrowth   = 3.0
)

// Trends computes one trend entry per tracked KPI using the assumed-growth
// heuristic. Division by zero is guarded: a zero current value reports the
// assumed growth constant directly. No NaN or Inf ever escapes.
func Trends(snap snapshot.Snapshot) []Trend {
	s := snap.Sanitized()
	return []Trend{
		trendFor("daily_sales", s.Sales.Today, assumedSalesGrowth, 85),
		trendFor("new_customers", float64(s.Customers.NewToday), assumedCustomerGrowth, 75),
		trendFor("devices_in_repair", float64(s.Devices.InRepair), assumedRepairGrowth, 70),
	}
}

func trendFor(metric string, current, assumedGrowth float64, confidence int) Trend {
	current = sanitize(current)
	predicted := sanitize(current * (1 + assumedGrowth/100))

	var pct float64
	if current == 0 {
		pct = assumedGrowth
	} else {
		pct = sanitize((predicted - current) / current * 100)
	}

	return Trend{
		Metric:        metric,
		Current:       current,
		Predicted:     math.Round(predicted),
		PercentChange: math.Round(pct*10) / 10,
		Direction:     direction(pct),
		Confidence:    confidence,
	}
}

func direction(pct float64) string {
	switch {
	case pct > 0.5:
		return "up"
	case pct < -0.5:
		return "down"
	default:
		return "stable"
	}
}

func seasonality(day time.Weekday) float64 {
	switch day {
	case time.Saturday:
		return 1.2
	case time.Sunday:
		return 1.1
	case time.Wednesday:
		return 0.9
	case time.Thursday:
		return 0.95
	default:
		return 1.0
	}
}

func dayConfidence(offset int) int {
	c := 90 - 5*offset
	if c < 60 {
		return 60
	}
	return c
}

func sanitize(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
