package httpapi

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	userKey      = "user"
	requestIDKey = "request_id"
)

// Identity resolves the caller of a request.
type Identity interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
	AuthorizeActive(user *models.User) (*models.User, error)
}

// RequestLogger tags each request with an id, renders handler errors
// through the app's ErrorHandler and logs the outcome.
func RequestLogger(l logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(requestIDKey, id)
		c.Set(fiber.HeaderXRequestID, id)

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		l.Info(c.UserContext(), "request",
			"request_id", id,
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"latency", time.Since(start).String(),
		)
		return nil
	}
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}

// AuthMiddleware requires a bearer token naming an active user. Token and
// lookup failures are 401; a disabled account is 403.
func AuthMiddleware(id Identity) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(common.AuthorizationHeaderName))
		if !ok {
			return withMessage(common.ErrorUnauthorized, "Not authenticated")
		}

		user, err := id.Authenticate(c.UserContext(), token)
		if err != nil {
			return err
		}
		user, err = id.AuthorizeActive(user)
		if err != nil {
			return err
		}

		c.Locals(userKey, user)
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// currentUser returns the user stored by AuthMiddleware.
func currentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(userKey).(*models.User)
	return u
}
