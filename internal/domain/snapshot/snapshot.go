package snapshot

import (
	"math"
	"time"
)

// Snapshot is a point-in-time read of the shop's business counters. It is
// produced by an external provider and replaced wholesale on every refresh
// tick; the engine never mutates one in place.
type Snapshot struct {
	Sales      SalesMetrics     `json:"sales"`
	Inventory  InventoryMetrics `json:"inventory"`
	Customers  CustomerMetrics  `json:"customers"`
	Devices    DeviceMetrics    `json:"devices"`
	Employees  EmployeeMetrics  `json:"employees"`
	CapturedAt time.Time        `json:"captured_at"`
}

// SalesMetrics tracks revenue counters for the current day
type SalesMetrics struct {
	Today      float64 `json:"today"`
	GrowthRate float64 `json:"growth_rate"` // percent vs prior period
}

// InventoryMetrics tracks stock level counters
type InventoryMetrics struct {
	LowStock      int `json:"low_stock"`
	CriticalStock int `json:"critical_stock"`
	TotalProducts int `json:"total_products"`
}

// CustomerMetrics tracks customer acquisition counters
type CustomerMetrics struct {
	NewToday int `json:"new_today"`
	Total    int `json:"total"`
}

// DeviceMetrics tracks repair workflow counters
type DeviceMetrics struct {
	Overdue   int `json:"overdue"`
	Completed int `json:"completed"`
	InRepair  int `json:"in_repair"`
}

// EmployeeMetrics tracks staff attendance counters
type EmployeeMetrics struct {
	Present int `json:"present"`
	Total   int `json:"total"`
}

// Sanitized returns a copy with NaN/Inf values coerced to zero and negative
// counters clamped to zero. Rule evaluation is fail-safe-quiet: bad provider
// data must never trigger alarms or panics.
func (s Snapshot) Sanitized() Snapshot {
	out := s
	out.Sales.Today = sanitizeFloat(s.Sales.Today)
	out.Sales.GrowthRate = sanitizeFloat(s.Sales.GrowthRate)
	out.Inventory.LowStock = clampCount(s.Inventory.LowStock)
	out.Inventory.CriticalStock = clampCount(s.Inventory.CriticalStock)
	out.Inventory.TotalProducts = clampCount(s.Inventory.TotalProducts)
	out.Customers.NewToday = clampCount(s.Customers.NewToday)
	out.Customers.Total = clampCount(s.Customers.Total)
	out.Devices.Overdue = clampCount(s.Devices.Overdue)
	out.Devices.Completed = clampCount(s.Devices.Completed)
	out.Devices.InRepair = clampCount(s.Devices.InRepair)
	out.Employees.Present = clampCount(s.Employees.Present)
	out.Employees.Total = clampCount(s.Employees.Total)
	return out
}

func sanitizeFloat(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f < 0 && math.Abs(f) > 1e12 {
		return 0
	}
	return f
}

func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
