package rest

import (
	"log/slog"
	"time"

	"chat-sync/auth"
	"chat-sync/observability"

	"github.com/gofiber/fiber/v2"
)

// accessLog writes one line per request once the handler chain returned.
// monitor may be nil.
func accessLog(log *slog.Logger, monitor *observability.Monitor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			status = errorStatus(err)
		}
		if monitor != nil {
			monitor.RecordRequest(status)
		}
		log.Info("HTTP request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", time.Since(start))
		return err
	}
}

// session resolves the caller from the Authorization header or, failing
// that, the session cookie. A missing credential yields the default identity.
func session(sessions *auth.Sessions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		credential := c.Get(fiber.HeaderAuthorization)
		if credential == "" {
			credential = c.Cookies(auth.CookieName)
		}
		userID, err := sessions.Resolve(credential)
		if err != nil {
			return err
		}
		c.Locals(auth.UserIDKey, userID)
		return c.Next()
	}
}

func sessionUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals(auth.UserIDKey).(string)
	return userID
}
