package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/dukapulse/dukapulse/internal/domain/snapshot"
	"github.com/dukapulse/dukapulse/internal/infrastructure/breakers"
)

// snapshotQuery aggregates the day's business counters in one round trip.
// Every column is COALESCEd so a missing table row degrades to zero rather
// than a scan error.
const snapshotQuery = `
SELECT
    COALESCE((SELECT SUM(total_amount) FROM sales WHERE sale_date = CURRENT_DATE), 0)            AS sales_today,
    COALESCE((SELECT growth_rate FROM sales_growth_daily WHERE day = CURRENT_DATE), 0)           AS sales_growth,
    COALESCE((SELECT COUNT(*) FROM product_variants WHERE stock_quantity <= reorder_level), 0)   AS low_stock,
    COALESCE((SELECT COUNT(*) FROM product_variants WHERE stock_quantity = 0), 0)                AS critical_stock,
    COALESCE((SELECT COUNT(*) FROM products WHERE active), 0)                                    AS total_products,
    COALESCE((SELECT COUNT(*) FROM customers WHERE created_at::date = CURRENT_DATE), 0)          AS new_customers,
    COALESCE((SELECT COUNT(*) FROM customers), 0)                                                AS total_customers,
    COALESCE((SELECT COUNT(*) FROM devices WHERE status = 'in_repair'
              AND expected_completion < NOW()), 0)                                               AS overdue_devices,
    COALESCE((SELECT COUNT(*) FROM devices WHERE status = 'completed'
              AND completed_at::date = CURRENT_DATE), 0)                                         AS completed_devices,
    COALESCE((SELECT COUNT(*) FROM devices WHERE status = 'in_repair'), 0)                       AS devices_in_repair,
    COALESCE((SELECT COUNT(*) FROM attendance WHERE day = CURRENT_DATE
              AND status IN ('present', 'late')), 0)                                             AS employees_present,
    COALESCE((SELECT COUNT(*) FROM employees WHERE active), 0)                                   AS employees_total
`

type snapshotRow struct {
	SalesToday       float64 `db:"sales_today"`
	SalesGrowth      float64 `db:"sales_growth"`
	LowStock         int     `db:"low_stock"`
	CriticalStock    int     `db:"critical_stock"`
	TotalProducts    int     `db:"total_products"`
	NewCustomers     int     `db:"new_customers"`
	TotalCustomers   int     `db:"total_customers"`
	OverdueDevices   int     `db:"overdue_devices"`
	CompletedDevices int     `db:"completed_devices"`
	DevicesInRepair  int     `db:"devices_in_repair"`
	EmployeesPresent int     `db:"employees_present"`
	EmployeesTotal   int     `db:"employees_total"`
}

// Postgres reads metrics snapshots from the hosted shop database. Fetches
// run through a circuit breaker: once the database is misbehaving, the
// engine keeps evaluating against the last snapshot it was given instead
// of stacking up failing queries.
type Postgres struct {
	db      *sqlx.DB
	breaker *breakers.Breaker
}

// NewPostgres opens a connection pool against the given DSN.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return NewPostgresWithDB(db), nil
}

// NewPostgresWithDB wraps an existing connection pool; used by tests.
func NewPostgresWithDB(db *sqlx.DB) *Postgres {
	return &Postgres{db: db, breaker: breakers.New("postgres-snapshot")}
}

// Fetch reads a fresh snapshot. Returns an error when the query fails or
// the breaker is open; callers are expected to keep their last snapshot.
func (p *Postgres) Fetch(ctx context.Context) (snapshot.Snapshot, error) {
	res, err := p.breaker.Execute(func() (any, error) {
		var row snapshotRow
		if err := p.db.GetContext(ctx, &row, snapshotQuery); err != nil {
			return nil, fmt.Errorf("snapshot query: %w", err)
		}
		return row, nil
	})
	if err != nil {
		return snapshot.Snapshot{}, err
	}

	row := res.(snapshotRow)
	return snapshot.Snapshot{
		Sales: snapshot.SalesMetrics{
			Today:      row.SalesToday,
			GrowthRate: row.SalesGrowth,
		},
		Inventory: snapshot.InventoryMetrics{
			LowStock:      row.LowStock,
			CriticalStock: row.CriticalStock,
			TotalProducts: row.TotalProducts,
		},
		Customers: snapshot.CustomerMetrics{
			NewToday: row.NewCustomers,
			Total:    row.TotalCustomers,
		},
		Devices: snapshot.DeviceMetrics{
			Overdue:   row.OverdueDevices,
			Completed: row.CompletedDevices,
			InRepair:  row.DevicesInRepair,
		},
		Employees: snapshot.EmployeeMetrics{
			Present: row.EmployeesPresent,
			Total:   row.EmployeesTotal,
		},
		CapturedAt: time.Now().UTC(),
	}.Sanitized(), nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error { return p.db.Close() }
