// Package middleware groups the HTTP middleware for the Fiber application.
//
//   - auth: API key validation (X-API-Key header or api_key query).
//   - rayid: per-request id (X-Ray-ID), stored in locals for logger.WithRayID.
package middleware
