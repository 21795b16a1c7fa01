package database

import (
	"time"

	"github.com/quillfeed/quillfeed/internal/metrics"
	"gorm.io/gorm"
)

const startTimeKey = "metrics:start_time"

// instrument registers callbacks that time every query and count it by
// operation and table.
func instrument(db *gorm.DB) {
	start := func(tx *gorm.DB) {
		tx.InstanceSet(startTimeKey, time.Now())
	}

	db.Callback().Create().Before("gorm:create").Register("metrics:before_create", start)
	db.Callback().Create().After("gorm:create").Register("metrics:after_create", func(tx *gorm.DB) {
		record(tx, "create")
	})

	db.Callback().Query().Before("gorm:query").Register("metrics:before_query", start)
	db.Callback().Query().After("gorm:query").Register("metrics:after_query", func(tx *gorm.DB) {
		record(tx, "query")
	})

	db.Callback().Update().Before("gorm:update").Register("metrics:before_update", start)
	db.Callback().Update().After("gorm:update").Register("metrics:after_update", func(tx *gorm.DB) {
		record(tx, "update")
	})

	db.Callback().Delete().Before("gorm:delete").Register("metrics:before_delete", start)
	db.Callback().Delete().After("gorm:delete").Register("metrics:after_delete", func(tx *gorm.DB) {
		record(tx, "delete")
	})

	db.Callback().Raw().Before("gorm:raw").Register("metrics:before_raw", start)
	db.Callback().Raw().After("gorm:raw").Register("metrics:after_raw", func(tx *gorm.DB) {
		record(tx, "raw")
	})
}

func record(tx *gorm.DB, queryType string) {
	m := metrics.Get()

	table := tx.Statement.Table
	if table == "" {
		table = "unknown"
	}

	status := "ok"
	if tx.Error != nil && tx.Error != gorm.ErrRecordNotFound {
		status = "error"
	}
	m.DatabaseQueriesTotal.WithLabelValues(queryType, table, status).Inc()

	if start, ok := tx.InstanceGet(startTimeKey); ok {
		if startTime, ok := start.(time.Time); ok {
			m.DatabaseQueryDuration.WithLabelValues(queryType, table).Observe(time.Since(startTime).Seconds())
		}
	}
}

// StartStatsReporter periodically publishes connection pool stats until the
// stop channel closes.
func StartStatsReporter(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if DB == nil {
					continue
				}
				sqlDB, err := DB.DB()
				if err != nil {
					continue
				}
				metrics.SetDatabaseConnections("postgres", sqlDB.Stats().OpenConnections)
			case <-stop:
				return
			}
		}
	}()
}
