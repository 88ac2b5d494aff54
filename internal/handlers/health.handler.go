package handlers

import (
	"journal/internal/app"
	"journal/internal/services"

	"github.com/gofiber/fiber/v2"
)

type jobReporter interface {
	IsRunning() bool
	Status() []services.JobStatus
}

// HealthHandler reports liveness plus the background worker's last run, which is the
// only way to see a stuck transcription job from outside the process.
func HealthHandler(router fiber.Router, app *app.App) {
	var scheduler jobReporter
	if app.Services.Scheduler != nil {
		scheduler = app.Services.Scheduler
	}

	router.Get("/health", func(c *fiber.Ctx) error {
		body := fiber.Map{
			"status":  "ok",
			"version": app.Config.GeneralVersion,
			"service": "journal_api",
		}

		if scheduler != nil {
			body["scheduler"] = fiber.Map{
				"running": scheduler.IsRunning(),
				"jobs":    scheduler.Status(),
			}
		}

		return c.JSON(body)
	})
}
