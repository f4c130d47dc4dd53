package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shipyard/dashboard/internal/core/ports"
	"github.com/shipyard/dashboard/internal/core/session"
	"github.com/shipyard/dashboard/internal/log"
)

const msgInvalidLogin = "invalid username/password"

type loginPage struct {
	page
	LoginUsername string
}

type loginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

func (h *Handler) ShowLogin(c *fiber.Ctx) error {
	return c.Render("login", loginPage{page: h.page(c, session.Session{}, "Login")}, "layouts/main")
}

// Login exchanges the submitted credentials for a token, keeps it in the
// session cookies and moves on to the dashboard.
func (h *Handler) Login(c *fiber.Ctx) error {
	var form loginForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid login form")
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()
	token, err := h.connector.Login(ctx, form.Username, form.Password)
	h.metrics.logins.WithLabelValues(result(err)).Inc()
	if err != nil {
		vm := loginPage{page: h.page(c, session.Session{}, "Login"), LoginUsername: form.Username}
		status := fiber.StatusUnauthorized
		if errors.Is(err, ports.ErrUnauthorized) {
			vm.Error = msgInvalidLogin
		} else {
			log.Errorf("login of %s failed: %v", form.Username, err)
			vm.Error = "login failed: " + err.Error()
			status = fiber.StatusBadGateway
		}
		return c.Status(status).Render("login", vm, "layouts/main")
	}

	h.sessions.save(c, form.Username, token)
	log.Infof("%s logged in", form.Username)
	return c.Redirect("/dashboard")
}

// Logout forgets the session and returns to the login page.
func (h *Handler) Logout(c *fiber.Ctx) error {
	s := h.sessions.get(c)
	if r, ok := h.connector.(ports.Revoker); ok && s.IsLoggedIn() {
		r.Revoke(s.Token)
	}
	h.sessions.delete(c)
	return c.Redirect("/login")
}
