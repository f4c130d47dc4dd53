package http

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shipyard/dashboard/internal/core/inspect"
	"github.com/shipyard/dashboard/internal/core/session"
)

// page is the part of every view-model the layout renders: header, menu
// and an inline error.
type page struct {
	Title    string
	Path     string
	Username string
	LoggedIn bool
	Version  string
	Error    string
}

func (h *Handler) page(c *fiber.Ctx, s session.Session, title string) page {
	return page{
		Title:    title,
		Path:     c.Path(),
		Username: s.Username,
		LoggedIn: s.IsLoggedIn(),
		Version:  h.version,
	}
}

type errorPage struct {
	page
	Status  int
	Message string
}

var templateFuncs = map[string]interface{}{
	// isActive highlights the menu entry of the current section
	"isActive": func(current, path string) bool {
		return strings.HasPrefix(current, path)
	},
	"shortID": func(id string) string {
		if len(id) > 12 {
			return id[:12]
		}
		return id
	},
	"join": strings.Join,
	"percent": func(s inspect.Slice, pie []inspect.Slice) string {
		return fmt.Sprintf("%.0f", inspect.Percent(s, pie))
	},
	"usage": func(series []inspect.Series, max float64) template.CSS {
		return template.CSS(fmt.Sprintf("width: %.0f%%", inspect.Usage(series, max)))
	},
	"number": func(f float64) string {
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
	},
}
