package rules

import (
	"math"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukapulse/dukapulse/internal/domain/alerts"
	"github.com/dukapulse/dukapulse/internal/domain/snapshot"
)

// Tuesday 15:00 sits outside every system reminder window.
var tuesdayAfternoon = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func engine() *Engine { return NewEngine(DefaultThresholds()) }

func findByID(list []alerts.Alert, id string) (alerts.Alert, bool) {
	for _, a := range list {
		if a.ID == id {
			return a, true
		}
	}
	return alerts.Alert{}, false
}

func TestCriticalStockAndLowSalesScenario(t *testing.T) {
	snap := snapshot.Snapshot{
		Inventory: snapshot.InventoryMetrics{CriticalStock: 3},
		Sales:     snapshot.SalesMetrics{Today: 20000},
	}

	out := engine().Evaluate(snap, tuesdayAfternoon)

	critical, ok := findByID(out, "critical-stock")
	require.True(t, ok, "critical-stock must fire")
	assert.Equal(t, alerts.KindCritical, critical.Kind)
	assert.Equal(t, alerts.PriorityHigh, critical.Priority)
	assert.False(t, critical.AutoExpire)

	lowSales, ok := findByID(out, "low-sales-performance")
	require.True(t, ok, "low-sales-performance must fire after 14:00")
	assert.Equal(t, alerts.KindWarning, lowSales.Kind)
	assert.Equal(t, alerts.CategorySales, lowSales.Category)

	ranked := alerts.Rank(out)
	assert.Equal(t, "critical-stock", ranked[0].ID, "critical ranks first")
}

func TestLowSalesQuietBeforeAfternoon(t *testing.T) {
	snap := snapshot.Snapshot{Sales: snapshot.SalesMetrics{Today: 20000}}
	morning := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)

	out := engine().Evaluate(snap, morning)

	_, ok := findByID(out, "low-sales-performance")
	assert.False(t, ok, "sales rule stays quiet before 14:00")
}

func TestRuleFiring(t *testing.T) {
	tests := []struct {
		name       string
		snap       snapshot.Snapshot
		wantID     string
		wantFire   bool
		wantExpire int
	}{
		{
			name:     "critical stock fires on one item",
			snap:     snapshot.Snapshot{Inventory: snapshot.InventoryMetrics{CriticalStock: 1}},
			wantID:   "critical-stock",
			wantFire: true,
		},
		{
			name:       "low stock fires above five",
			snap:       snapshot.Snapshot{Inventory: snapshot.InventoryMetrics{LowStock: 6}},
			wantID:     "low-stock-warning",
			wantFire:   true,
			wantExpire: 60,
		},
		{
			name:     "low stock quiet at exactly five",
			snap:     snapshot.Snapshot{Inventory: snapshot.InventoryMetrics{LowStock: 5}},
			wantID:   "low-stock-warning",
			wantFire: false,
		},
		{
			name:     "overdue devices fire",
			snap:     snapshot.Snapshot{Devices: snapshot.DeviceMetrics{Overdue: 2}},
			wantID:   "overdue-devices",
			wantFire: true,
		},
		{
			name:       "completion milestone fires above ten",
			snap:       snapshot.Snapshot{Devices: snapshot.DeviceMetrics{Completed: 11}},
			wantID:     "high-completion-rate",
			wantFire:   true,
			wantExpire: 30,
		},
		{
			name:       "customer milestone fires at five",
			snap:       snapshot.Snapshot{Customers: snapshot.CustomerMetrics{NewToday: 5}},
			wantID:     "customer-milestone",
			wantFire:   true,
			wantExpire: 15,
		},
		{
			name:     "customer milestone quiet at four",
			snap:     snapshot.Snapshot{Customers: snapshot.CustomerMetrics{NewToday: 4}},
			wantID:   "customer-milestone",
			wantFire: false,
		},
		{
			name:     "attendance fires below 80 percent",
			snap:     snapshot.Snapshot{Employees: snapshot.EmployeeMetrics{Present: 7, Total: 10}},
			wantID:   "low-attendance",
			wantFire: true,
		},
		{
			name:     "attendance quiet at exactly 80 percent",
			snap:     snapshot.Snapshot{Employees: snapshot.EmployeeMetrics{Present: 8, Total: 10}},
			wantID:   "low-attendance",
			wantFire: false,
		},
		{
			name:     "attendance quiet with no staff records",
			snap:     snapshot.Snapshot{Employees: snapshot.EmployeeMetrics{Present: 0, Total: 0}},
			wantID:   "low-attendance",
			wantFire: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// High sales keep the sales rule quiet in unrelated cases.
			if tt.snap.Sales.Today == 0 {
				tt.snap.Sales.Today = 100000
			}
			out := engine().Evaluate(tt.snap, tuesdayAfternoon)

			got, ok := findByID(out, tt.wantID)
			assert.Equal(t, tt.wantFire, ok)
			if tt.wantFire && tt.wantExpire > 0 {
				assert.True(t, got.AutoExpire)
				assert.Equal(t, tt.wantExpire, got.ExpireAfterMinutes)
			}
		})
	}
}

func TestSystemRemindersDeterministic(t *testing.T) {
	quiet := snapshot.Snapshot{Sales: snapshot.SalesMetrics{Today: 100000}}

	evening := time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC) // Tuesday
	out := engine().Evaluate(quiet, evening)
	backup, ok := findByID(out, "backup-due")
	require.True(t, ok, "backup reminder fires in its evening window")
	assert.True(t, backup.AutoExpire)
	assert.Equal(t, 120, backup.ExpireAfterMinutes)

	afternoon := engine().Evaluate(quiet, tuesdayAfternoon)
	_, ok = findByID(afternoon, "backup-due")
	assert.False(t, ok, "backup reminder quiet outside its window")

	mondayMorning := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	out = engine().Evaluate(quiet, mondayMorning)
	_, ok = findByID(out, "software-update")
	assert.True(t, ok, "update reminder fires Monday morning")

	tuesdayMorning := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	out = engine().Evaluate(quiet, tuesdayMorning)
	_, ok = findByID(out, "software-update")
	assert.False(t, ok, "update reminder quiet on other weekdays")
}

func TestEvaluateDeterministic(t *testing.T) {
	snap := snapshot.Snapshot{
		Inventory: snapshot.InventoryMetrics{CriticalStock: 2, LowStock: 8},
		Sales:     snapshot.SalesMetrics{Today: 30000},
	}

	first := engine().Evaluate(snap, tuesdayAfternoon)
	second := engine().Evaluate(snap, tuesdayAfternoon)

	assert.Equal(t, first, second, "identical inputs yield identical candidates")
}

func TestEvaluateToleratesGarbage(t *testing.T) {
	snap := snapshot.Snapshot{
		Sales:     snapshot.SalesMetrics{Today: math.NaN(), GrowthRate: math.Inf(-1)},
		Inventory: snapshot.InventoryMetrics{LowStock: -10, CriticalStock: -2},
	}

	assert.NotPanics(t, func() {
		out := engine().Evaluate(snap, tuesdayAfternoon)
		_, ok := findByID(out, "critical-stock")
		assert.False(t, ok, "negative garbage reads as zero and stays quiet")
	})
}

func TestLoadThresholdsOverlay(t *testing.T) {
	path := t.TempDir() + "/thresholds.yaml"
	content := "sales:\n  daily_target: 75000\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := LoadThresholds(path)
	require.NoError(t, err)

	assert.Equal(t, 75000.0, got.Sales.DailyTarget, "file value overrides default")
	assert.Equal(t, 5, got.Inventory.LowStockMin, "missing fields keep defaults")
}

func TestLoadThresholdsMissingFile(t *testing.T) {
	got, err := LoadThresholds("does/not/exist.yaml")
	assert.Error(t, err)
	assert.Equal(t, DefaultThresholds(), got, "defaults returned on error")
}
