package handlers

import (
	"errors"

	"journal/internal/app"
	transcriptionController "journal/internal/controllers/transcriptions"
	"journal/internal/handlers/middleware"
	"journal/internal/services"
	"journal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

type TranscriptionHandler struct {
	Handler
	transcriptionController transcriptionController.TranscriptionControllerInterface
}

func NewTranscriptionHandler(app app.App, router fiber.Router) *TranscriptionHandler {
	log := logger.New("handlers").File("transcription_handler")
	return &TranscriptionHandler{
		transcriptionController: app.Controllers.Transcription,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

// Register mounts the worker trigger ahead of the user group so bearer auth on the
// group never runs for it; the worker secret guards it instead.
func (h *TranscriptionHandler) Register() {
	h.router.Post("/transcriptions/worker", h.middleware.RequireWorkerSecret(), h.runWorker)

	transcriptions := h.router.Group("/transcriptions", h.middleware.RequireAuth())
	transcriptions.Get("/:memoryId", h.getStatus)
	transcriptions.Post("/:memoryId/queue", h.queue)
	transcriptions.Post("/:memoryId/retry", h.retry)
}

func queueStatus(result services.QueueResult) int {
	switch result.Error {
	case "":
		return fiber.StatusOK
	case services.QueueErrInvalidMemoryID:
		return fiber.StatusBadRequest
	case services.QueueErrFeatureDisabled:
		return fiber.StatusForbidden
	case services.QueueErrQuotaReached:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *TranscriptionHandler) queue(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return unauthorized(c)
	}

	result := h.transcriptionController.Queue(c.UserContext(), userID, c.Params("memoryId"))
	return c.Status(queueStatus(result)).JSON(result)
}

func (h *TranscriptionHandler) retry(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return unauthorized(c)
	}

	result := h.transcriptionController.Retry(c.UserContext(), userID, c.Params("memoryId"))
	return c.Status(queueStatus(result)).JSON(result)
}

func (h *TranscriptionHandler) getStatus(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return unauthorized(c)
	}

	media, err := h.transcriptionController.Status(c.UserContext(), userID, c.Params("memoryId"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidMemoryID) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": services.QueueErrInvalidMemoryID})
		}
		h.log.Function("getStatus").Er("failed to load transcription status", err, "userID", userID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not load transcription status"})
	}

	return c.JSON(fiber.Map{"media": media})
}

func (h *TranscriptionHandler) runWorker(c *fiber.Ctx) error {
	var req transcriptionController.WorkerRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	result, err := h.transcriptionController.RunWorker(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, services.ErrWorkerNotConfigured) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
		}
		h.log.Function("runWorker").Er("worker run failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Worker run failed"})
	}

	return c.JSON(result)
}
