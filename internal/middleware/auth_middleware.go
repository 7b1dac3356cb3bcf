package middleware

import (
	"garment-tracker/internal/apperror"
	"garment-tracker/internal/model"
	"garment-tracker/internal/policy"
	"garment-tracker/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

const (
	localAccount   = "account"
	localSessionID = "session_id"
)

// SessionReader is the read side of the session gate.
type SessionReader interface {
	CurrentAccount(sessionID string) (*model.Account, bool)
}

// Session loads the cached account for the session cookie, if any.
// It never rejects a request; use RequireSession or RequireCapability for that.
func Session(sessions SessionReader, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(cookieName)
		if sid == "" {
			return c.Next()
		}
		c.Locals(localSessionID, sid)
		if account, ok := sessions.CurrentAccount(sid); ok {
			c.Locals(localAccount, account)
		}
		return c.Next()
	}
}

// RequestContext attaches the request id (set by the requestid middleware) to
// the user context so downstream loggers can pick it up.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals("requestid").(string); ok && id != "" {
			c.SetUserContext(logger.ContextWithRequestID(c.UserContext(), id))
		}
		return c.Next()
	}
}

// Account returns the session account, or nil when the request is anonymous.
func Account(c *fiber.Ctx) *model.Account {
	account, _ := c.Locals(localAccount).(*model.Account)
	return account
}

func SessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals(localSessionID).(string)
	return sid
}

// RequireSession rejects anonymous requests with apperror.ErrNoSession.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if Account(c) == nil {
			return apperror.ErrNoSession
		}
		return c.Next()
	}
}

// RequireCapability gates a route on a named capability.
func RequireCapability(capability policy.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := policy.Check(Account(c), capability).Err(); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireAnyCapability passes when the account holds at least one of the capabilities.
// The denial reported is the first capability's.
func RequireAnyCapability(capabilities ...policy.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		account := Account(c)
		var first error
		for _, capability := range capabilities {
			err := policy.Check(account, capability).Err()
			if err == nil {
				return c.Next()
			}
			if first == nil {
				first = err
			}
		}
		if first == nil {
			first = apperror.ErrRoleMismatch
		}
		return first
	}
}
