package handlers

import (
	"errors"

	"journal/internal/app"
	feedbackController "journal/internal/controllers/feedback"
	"journal/internal/handlers/middleware"
	"journal/internal/services"
	"journal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

type FeedbackHandler struct {
	Handler
	feedbackController feedbackController.FeedbackControllerInterface
}

func NewFeedbackHandler(app app.App, router fiber.Router) *FeedbackHandler {
	log := logger.New("handlers").File("feedback_handler")
	return &FeedbackHandler{
		feedbackController: app.Controllers.Feedback,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *FeedbackHandler) Register() {
	questions := h.router.Group("/questions", h.middleware.RequireAuth())
	questions.Get("/:id/feedback", h.getFeedback)
	questions.Put("/:id/feedback", h.submitFeedback)
}

func (h *FeedbackHandler) getFeedback(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return unauthorized(c)
	}

	response, err := h.feedbackController.Get(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return h.failure(c, err)
	}

	return c.JSON(response)
}

func (h *FeedbackHandler) submitFeedback(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return unauthorized(c)
	}

	var req feedbackController.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	response, err := h.feedbackController.Submit(c.UserContext(), userID, c.Params("id"), req)
	if err != nil {
		return h.failure(c, err)
	}

	return c.JSON(response)
}

func (h *FeedbackHandler) failure(c *fiber.Ctx, err error) error {
	if errors.Is(err, feedbackController.ErrInvalidQuestionID) ||
		errors.Is(err, services.ErrInvalidFeedbackRating) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	h.log.Function("failure").Er("feedback request failed", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not save feedback"})
}
