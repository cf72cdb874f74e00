package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Thresholds are the tunable trigger levels for the rule engine. Defaults
// reproduce the production dashboard's behavior; operators override them
// via a YAML file.
type Thresholds struct {
	Inventory InventoryThresholds `yaml:"inventory"`
	Sales     SalesThresholds     `yaml:"sales"`
	Devices   DeviceThresholds    `yaml:"devices"`
	Customers CustomerThresholds  `yaml:"customers"`
	Employees EmployeeThresholds  `yaml:"employees"`
	System    SystemThresholds    `yaml:"system"`
}

// InventoryThresholds controls stock alerts
type InventoryThresholds struct {
	LowStockMin         int `yaml:"low_stock_min"`          // warn above this many low-stock items
	LowStockExpireMins  int `yaml:"low_stock_expire_mins"`  // auto-expiry for the warning
}

// SalesThresholds controls sales performance alerts
type SalesThresholds struct {
	DailyTarget   float64 `yaml:"daily_target"`    // warn when today's sales are below
	QuietFromHour int     `yaml:"quiet_from_hour"` // only warn from this hour onward
}

// DeviceThresholds controls repair workflow alerts
type DeviceThresholds struct {
	CompletedMilestone    int `yaml:"completed_milestone"`
	CompletedExpireMins   int `yaml:"completed_expire_mins"`
}

// CustomerThresholds controls acquisition milestone alerts
type CustomerThresholds struct {
	NewTodayMilestone   int `yaml:"new_today_milestone"`
	MilestoneExpireMins int `yaml:"milestone_expire_mins"`
}

// EmployeeThresholds controls attendance alerts
type EmployeeThresholds struct {
	AttendanceRatio float64 `yaml:"attendance_ratio"` // warn below present/total ratio
}

// SystemThresholds controls the deterministic daily reminders
type SystemThresholds struct {
	BackupFromHour     int `yaml:"backup_from_hour"`     // backup reminder window start
	BackupToHour       int `yaml:"backup_to_hour"`       // backup reminder window end (exclusive)
	BackupExpireMins   int `yaml:"backup_expire_mins"`
	UpdateCheckWeekday int `yaml:"update_check_weekday"` // 0=Sunday ... 6=Saturday
	UpdateFromHour     int `yaml:"update_from_hour"`
	UpdateToHour       int `yaml:"update_to_hour"`
}

// DefaultThresholds returns the production trigger levels.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Inventory: InventoryThresholds{
			LowStockMin:        5,
			LowStockExpireMins: 60,
		},
		Sales: SalesThresholds{
			DailyTarget:   50000,
			QuietFromHour: 14,
		},
		Devices: DeviceThresholds{
			CompletedMilestone:  10,
			CompletedExpireMins: 30,
		},
		Customers: CustomerThresholds{
			NewTodayMilestone:   5,
			MilestoneExpireMins: 15,
		},
		Employees: EmployeeThresholds{
			AttendanceRatio: 0.8,
		},
		System: SystemThresholds{
			BackupFromHour:     18,
			BackupToHour:       20,
			BackupExpireMins:   120,
			UpdateCheckWeekday: 1, // Monday
			UpdateFromHour:     9,
			UpdateToHour:       11,
		},
	}
}

// LoadThresholds reads a YAML thresholds file, overlaying the defaults.
// Missing fields keep their default values.
func LoadThresholds(path string) (Thresholds, error) {
	t := DefaultThresholds()
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read thresholds: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return DefaultThresholds(), fmt.Errorf("parse thresholds: %w", err)
	}
	return t, nil
}
