package handlers

import (
	"errors"

	"journal/internal/app"
	promptController "journal/internal/controllers/prompts"
	"journal/internal/handlers/middleware"
	"journal/internal/services"
	"journal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

type PromptHandler struct {
	Handler
	promptController promptController.PromptControllerInterface
}

func NewPromptHandler(app app.App, router fiber.Router) *PromptHandler {
	log := logger.New("handlers").File("prompt_handler")
	return &PromptHandler{
		promptController: app.Controllers.Prompt,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *PromptHandler) Register() {
	prompts := h.router.Group("/prompts", h.middleware.RequireAuth())
	prompts.Get("/daily", h.getDaily)
	prompts.Post("/daily/next", h.assignNext)
}

func (h *PromptHandler) getDaily(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return unauthorized(c)
	}

	result, err := h.promptController.GetDaily(c.UserContext(), userID, c.Query("date"), c.Query("locale"))
	return h.respond(c, result, err)
}

func (h *PromptHandler) assignNext(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return unauthorized(c)
	}

	result, err := h.promptController.AssignNext(c.UserContext(), userID, c.Query("date"), c.Query("locale"))
	return h.respond(c, result, err)
}

func (h *PromptHandler) respond(c *fiber.Ctx, result services.PromptResult, err error) error {
	if err != nil {
		if errors.Is(err, promptController.ErrInvalidDate) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		h.log.Function("respond").Er("prompt request failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not load prompt"})
	}

	if result.Status == services.PromptStatusError {
		return c.Status(fiber.StatusInternalServerError).JSON(result)
	}

	return c.JSON(result)
}
