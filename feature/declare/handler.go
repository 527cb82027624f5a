package declare

import (
	"errors"

	"declaration-manager/core/device"
	"declaration-manager/core/logger"
	"declaration-manager/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for declarations.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the declare routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/declare")
	group.Post("/", h.HandleDeclare)
	group.Post("/parse", h.HandleParse)
	group.Get("/history", h.HandleHistory)
	group.Get("/history/:id", h.HandleArchived)
}

// HandleDeclare plans and applies a declaration.
func (h *Handler) HandleDeclare(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	id := uuid.NewString()
	dryRun := c.QueryBool("dryRun", false)

	report, err := h.service.Declare(c.Context(), id, c.Body(), dryRun)
	if err != nil {
		status := statusFor(err)
		l.Error("Declaration failed", zap.Int("status", status), zap.Error(err))
		body := fiber.Map{"error": err.Error()}
		if report != nil {
			body["report"] = report
		}
		return c.Status(status).JSON(body)
	}

	l.Info("Declaration processed",
		zap.String("id", id),
		zap.Bool("dry_run", dryRun),
		zap.Int("creates", report.Plan.Summary.Creates),
		zap.Int("modifies", report.Plan.Summary.Modifies))
	return c.JSON(report)
}

// HandleParse returns the class index of a declaration.
func (h *Handler) HandleParse(c *fiber.Ctx) error {
	report, err := h.service.Parse(c.Body())
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}

// HandleHistory lists archived declarations.
func (h *Handler) HandleHistory(c *fiber.Ctx) error {
	entries, err := h.service.History(c.Context())
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Failed to list archive", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(entries)
}

// HandleArchived returns one archived declaration as submitted.
func (h *Handler) HandleArchived(c *fiber.Ctx) error {
	doc, err := h.service.Archived(c.Context(), c.Params("id"))
	if errors.Is(err, ErrNotArchived) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(doc)
}

// statusFor maps invalid declarations to 422 and device failures to 502.
func statusFor(err error) int {
	var invalid *InvalidError
	if errors.As(err, &invalid) {
		return fiber.StatusUnprocessableEntity
	}
	var de *reconcile.DomainError
	var he *device.HTTPError
	if errors.As(err, &de) || errors.As(err, &he) {
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}
