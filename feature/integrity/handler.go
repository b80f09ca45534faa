package integrity

import (
	"mediainfo-keeper/core/logger"
	"mediainfo-keeper/feature/integrity/checks"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	// Force import for Swagger
	var _ = checks.ServerReport{}
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/storage", h.HandleStorageCheck)
	group.Get("/server", h.HandleServerCheck)
	group.Get("/backups", h.HandleBackupsCheck)
}

// HandleIntegrityCheck triggers all integrity checks.
// @Summary Run All Integrity Checks
// @Description Performs all available integrity checks (Storage, Server, Backups). The backups check reads every backup record.
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	return c.JSON(h.service.CheckAll(c.Context()))
}

// HandleStorageCheck checks and optionally fixes the backup backend.
// @Summary Check Backup Storage
// @Description Checks that the backup location exists (library roots, centralized root or bucket). Optionally creates the backup root or bucket.
// @Tags integrity
// @Accept json
// @Produce json
// @Param fix query boolean false "Create the missing backup location"
// @Success 200 {object} checks.StorageReport "Storage Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/storage [get]
func (h *Handler) HandleStorageCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := c.Query("fix") == "true"

	report, err := h.service.CheckStorage(c.Context())
	if err != nil {
		l.Error("Storage check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if len(report.Missing) > 0 {
		l.Warn("Missing backup locations detected", zap.Strings("missing", report.Missing))

		if fix {
			l.Info("Attempting to fix backup storage")
			if err := h.service.FixStorage(c.Context(), report); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error":   "Failed to fix storage",
					"details": err.Error(),
					"missing": report.Missing,
				})
			}
			return c.JSON(fiber.Map{
				"status": "fixed",
				"fixed":  report.Missing,
			})
		}
	}

	return c.JSON(report)
}

// HandleServerCheck checks the library schema.
// @Summary Check Server Schema
// @Description Checks if the library database schema matches the expected models.
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} checks.ServerReport "Server Check Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/server [get]
func (h *Handler) HandleServerCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Starting server schema check")

	report, err := h.service.CheckServer()
	if err != nil {
		l.Error("Server schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(report)
}

// HandleBackupsCheck reports backup coverage.
// @Summary Check Backup Coverage
// @Description Lists reference items with streams but no backup, stale backups and unreadable backups.
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} checks.BackupReport "Backup Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/backups [get]
func (h *Handler) HandleBackupsCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.CheckBackups(c.Context())
	if err != nil {
		l.Error("Backup coverage check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	l.Info("Backup coverage check completed",
		zap.Int("total", report.Total),
		zap.Int("covered", report.Covered))

	return c.JSON(report)
}
