package mediainfo

import (
	"errors"
	"fmt"
	"time"

	"mediainfo-keeper/core/library"
	"mediainfo-keeper/core/logger"
	"mediainfo-keeper/core/media"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// EventRequest is the webhook body accepted from the host.
type EventRequest struct {
	Kind   media.EventKind `json:"kind" example:"updated"`
	ItemID string          `json:"item_id" example:"0b8e4d2c-8f0e-4e42-9d57-1f3f0c2a7d11"`
}

// ValidationError reports a malformed ingress request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Handler handles HTTP requests for the mediainfo feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the mediainfo routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/mediainfo")
	group.Post("/events", h.HandleEvent)
	group.Post("/sweep", h.HandleSweep)
	group.Get("/sweep", h.HandleSweepState)
	group.Get("/items/:id", h.HandleInspect)
	group.Get("/failures", h.HandleFailures)
	group.Get("/stats", h.HandleStats)
}

func parseEvent(c *fiber.Ctx) (media.Event, error) {
	var req EventRequest
	if err := c.BodyParser(&req); err != nil {
		return media.Event{}, &ValidationError{Field: "body", Message: err.Error()}
	}
	if req.ItemID == "" {
		return media.Event{}, &ValidationError{Field: "item_id", Message: "required"}
	}
	evt := media.Event{Kind: req.Kind, ItemID: req.ItemID, At: time.Now()}
	if err := evt.Validate(); err != nil {
		return media.Event{}, &ValidationError{Field: "kind", Message: err.Error()}
	}
	return evt, nil
}

// HandleEvent queues a host item notification.
// @Summary Ingest item notification
// @Description Queue an added or updated notification for reconciliation. The current item state is loaded from the library at evaluation time.
// @Tags mediainfo
// @Accept json
// @Produce json
// @Param event body EventRequest true "Notification"
// @Success 202 {object} map[string]string "Queued"
// @Failure 400 {object} map[string]string "Invalid notification"
// @Failure 503 {object} map[string]string "Queue full"
// @Router /mediainfo/events [post]
func (h *Handler) HandleEvent(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	evt, err := parseEvent(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.service.Ingest(evt); err != nil {
		if errors.Is(err, ErrQueueFull) {
			l.Warn("Notification dropped", zap.String("item_id", evt.ItemID), zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "queued"})
}

// HandleSweep starts a bulk reconciliation sweep.
// @Summary Run sweep
// @Description Start a sweep over items modified since the last watermark. With wait=true the request blocks and returns the report.
// @Tags mediainfo
// @Produce json
// @Param full query bool false "Ignore the watermark"
// @Param dry_run query bool false "Plan without acting"
// @Param wait query bool false "Wait for the report"
// @Success 200 {object} SweepReport "Sweep report"
// @Success 202 {object} map[string]string "Sweep started"
// @Failure 500 {object} SweepReport "Sweep failed"
// @Failure 503 {object} map[string]string "Service stopped"
// @Router /mediainfo/sweep [post]
func (h *Handler) HandleSweep(c *fiber.Ctx) error {
	opts := SweepOptions{
		Full:   c.QueryBool("full"),
		DryRun: c.QueryBool("dry_run"),
	}

	if !c.QueryBool("wait") {
		if err := h.service.Trigger(opts); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "started"})
	}

	l := logger.WithRayID(h.service.logger, c)
	report, err := h.service.Sweep(c.Context(), opts)
	if err != nil {
		l.Error("Sweep failed", zap.Error(err))
		if report == nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(report)
	}
	return c.JSON(report)
}

// HandleSweepState returns the sweep progress and the last report.
// @Summary Sweep status
// @Tags mediainfo
// @Produce json
// @Success 200 {object} SweepState "Sweep status"
// @Router /mediainfo/sweep [get]
func (h *Handler) HandleSweepState(c *fiber.Ctx) error {
	return c.JSON(h.service.SweepState())
}

// HandleInspect returns the reconciliation decision for one item without acting.
// @Summary Inspect item
// @Tags mediainfo
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} Inspection "Inspection"
// @Failure 404 {object} map[string]string "Item not found"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /mediainfo/items/{id} [get]
func (h *Handler) HandleInspect(c *fiber.Ctx) error {
	id := c.Params("id")
	l := logger.WithRayID(h.service.logger, c)

	out, err := h.service.Inspect(c.Context(), id)
	if err != nil {
		if errors.Is(err, library.ErrItemNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Inspection failed", zap.String("item_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(out)
}

// HandleFailures lists the circuit breaker entries.
// @Summary Circuit breaker entries
// @Tags mediainfo
// @Produce json
// @Success 200 {array} reconcile.FailureEntry "Entries"
// @Router /mediainfo/failures [get]
func (h *Handler) HandleFailures(c *fiber.Ctx) error {
	return c.JSON(h.service.Failures())
}

// HandleStats returns the reconciler counters.
// @Summary Reconciler counters
// @Tags mediainfo
// @Produce json
// @Success 200 {object} Stats "Counters"
// @Router /mediainfo/stats [get]
func (h *Handler) HandleStats(c *fiber.Ctx) error {
	return c.JSON(h.service.Stats())
}
