package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	UserIDKey          = "userID"
	WorkerSecretHeader = "X-Worker-Secret"
	SocketTokenQuery   = "token"
)

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// RequireAuth verifies the bearer token and stores the caller's user id
func (m *Middleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := m.log.TraceFromContext(c.UserContext()).Function("RequireAuth")

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			log.Debug("missing authorization header")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			log.Debug("invalid authorization header format")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		userID, err := m.verifier.VerifyToken(c.UserContext(), token)
		if err != nil {
			log.Info("token validation failed", "error", err.Error())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

// RequireSocketAuth guards the websocket upgrade. Browsers cannot set headers on a
// socket handshake, so the token travels in the query string.
func (m *Middleware) RequireSocketAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		token := c.Query(SocketTokenQuery)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token required"})
		}

		userID, err := m.verifier.VerifyToken(c.UserContext(), token)
		if err != nil {
			m.log.Function("RequireSocketAuth").Info("socket token rejected", "error", err.Error())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}

		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

// RequireWorkerSecret admits internal callers that present the shared worker secret
func (m *Middleware) RequireWorkerSecret() fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := m.log.TraceFromContext(c.UserContext()).Function("RequireWorkerSecret")

		if m.Config.WorkerSecret == "" {
			log.Warn("worker endpoint called but WORKER_SECRET is not set")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Worker endpoint is not configured",
			})
		}

		provided := c.Get(WorkerSecretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(m.Config.WorkerSecret)) != 1 {
			log.Info("worker secret rejected")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid worker secret",
			})
		}

		return c.Next()
	}
}

func GetUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	userID, ok := c.Locals(UserIDKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}
