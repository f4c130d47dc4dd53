package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shipyard/dashboard/internal/core/domain"
	"github.com/shipyard/dashboard/internal/core/inspect"
	"github.com/shipyard/dashboard/internal/log"
)

type dashboardPage struct {
	page
	Events           []domain.Event
	EventsError      string
	ClusterInfo      *domain.ClusterInfo
	ClusterCpu       []inspect.Slice
	ClusterMemory    []inspect.Slice
	ClusterInfoError string
}

// Dashboard shows recent events next to cluster capacity. The two are
// fetched independently; one failing leaves the other on the page.
func (h *Handler) Dashboard(c *fiber.Ctx) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()
	cluster := currentCluster(c)
	vm := dashboardPage{page: h.page(c, currentSession(c), "Dashboard")}

	events, err := cluster.ListEvents(ctx)
	if err != nil {
		if ok, rerr := h.unauthorized(c, err); ok {
			return rerr
		}
		log.Warning(err)
		vm.EventsError = err.Error()
	}
	vm.Events = events

	info, err := cluster.ClusterInfo(ctx)
	if err != nil {
		if ok, rerr := h.unauthorized(c, err); ok {
			return rerr
		}
		log.Warning(err)
		vm.ClusterInfoError = err.Error()
	} else {
		vm.ClusterInfo = info
		vm.ClusterCpu, vm.ClusterMemory = inspect.ClusterCharts(*info)
	}

	return c.Render("dashboard", vm, "layouts/main")
}

type eventsPage struct {
	page
	Events []domain.Event
}

func (h *Handler) Events(c *fiber.Ctx) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()
	vm := eventsPage{page: h.page(c, currentSession(c), "Events")}

	events, err := currentCluster(c).ListEvents(ctx)
	if err != nil {
		if ok, rerr := h.unauthorized(c, err); ok {
			return rerr
		}
		log.Warning(err)
		vm.Error = err.Error()
	}
	vm.Events = events
	return c.Render("events", vm, "layouts/main")
}

type enginesPage struct {
	page
	Engines []domain.Engine
}

func (h *Handler) Engines(c *fiber.Ctx) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()
	vm := enginesPage{page: h.page(c, currentSession(c), "Engines")}

	engines, err := currentCluster(c).ListEngines(ctx)
	if err != nil {
		if ok, rerr := h.unauthorized(c, err); ok {
			return rerr
		}
		log.Warning(err)
		vm.Error = err.Error()
	}
	vm.Engines = engines
	return c.Render("engines", vm, "layouts/main")
}
