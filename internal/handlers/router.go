package handlers

import (
	"journal/internal/app"
	"journal/internal/handlers/middleware"
	"journal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	router.Use(app.Middleware.TraceID())

	WebSocketHandler(router, app)

	api := router.Group("/api")
	HealthHandler(api, app)

	NewPromptHandler(*app, api).Register()
	NewTranscriptionHandler(*app, api).Register()
	NewFeedbackHandler(*app, api).Register()
	NewFeatureHandler(*app, api).Register()

	return nil
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Authentication required",
	})
}
