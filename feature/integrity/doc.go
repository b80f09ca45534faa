// Package integrity provides health checks for the backup infrastructure.
//
// # Checks Provided
//
//   - Storage: the backup location exists (library roots for side-by-side
//     backups, the centralized root, or the bucket for the s3 backend).
//   - Server: the library tables match the GORM models (columns, types).
//   - Backups: every reference item with streams has a readable, current backup.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/storage : Runs the storage check (supports ?fix=true).
//   - GET /integrity/server : Runs the schema check.
//   - GET /integrity/backups : Runs the backup coverage check.
package integrity
