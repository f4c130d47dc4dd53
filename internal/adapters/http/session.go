package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shipyard/dashboard/internal/core/session"
)

const (
	tokenCookie    = "shipyard_token"
	usernameCookie = "shipyard_username"

	sessionTTL = 24 * time.Hour
)

// sessionStore keeps the session on the client in cookies.
type sessionStore struct {
	secure bool
}

func (s *sessionStore) get(c *fiber.Ctx) session.Session {
	return session.Session{
		Username: c.Cookies(usernameCookie),
		Token:    c.Cookies(tokenCookie),
	}
}

func (s *sessionStore) save(c *fiber.Ctx, username, token string) {
	expires := time.Now().Add(sessionTTL)
	for name, value := range map[string]string{usernameCookie: username, tokenCookie: token} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			Expires:  expires,
			Secure:   s.secure,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
}

func (s *sessionStore) delete(c *fiber.Ctx) {
	c.ClearCookie(usernameCookie, tokenCookie)
}
