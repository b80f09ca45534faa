// Package database handles database connections and schema inspection.
//
// It wraps GORM and configures one of three dialects from the application's
// configuration: sqlite (default, a single local file), mysql, or postgres
// (through lib/pq). The library model in core/library is dialect agnostic.
//
// # Schema Inspection
//
// GetTableColumns returns the live column definitions of a table. The
// integrity feature compares them against the GORM models to detect drift.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    logger.Fatal("Database connection failed", zap.Error(err))
//	}
//
//	columns, err := database.GetTableColumns(db, "library_items")
package database
