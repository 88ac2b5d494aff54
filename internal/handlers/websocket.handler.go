package handlers

import (
	"journal/internal/app"
	"journal/internal/handlers/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

func WebSocketHandler(router fiber.Router, app *app.App) {
	if app.Websocket == nil {
		return
	}

	router.Get("/ws", app.Middleware.RequireSocketAuth(), websocket.New(func(c *websocket.Conn) {
		userID, ok := c.Locals(middleware.UserIDKey).(uuid.UUID)
		if !ok {
			_ = c.Close()
			return
		}
		app.Websocket.HandleWebSocket(c, userID)
	}))
}
