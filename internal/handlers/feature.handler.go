package handlers

import (
	"errors"

	"journal/internal/app"
	featureController "journal/internal/controllers/features"
	"journal/internal/handlers/middleware"
	"journal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

type FeatureHandler struct {
	Handler
	featureController featureController.FeatureControllerInterface
}

func NewFeatureHandler(app app.App, router fiber.Router) *FeatureHandler {
	log := logger.New("handlers").File("feature_handler")
	return &FeatureHandler{
		featureController: app.Controllers.Feature,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *FeatureHandler) Register() {
	features := h.router.Group("/features", h.middleware.RequireAuth())
	features.Get("/:key/usage", h.getUsage)
}

func (h *FeatureHandler) getUsage(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return unauthorized(c)
	}

	usage, err := h.featureController.GetUsage(c.UserContext(), userID, c.Params("key"))
	if err != nil {
		if errors.Is(err, featureController.ErrInvalidFeatureKey) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		h.log.Function("getUsage").Er("failed to load feature usage", err, "userID", userID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not load usage"})
	}

	return c.JSON(usage)
}
