package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shipyard/dashboard/internal/core/domain"
	"github.com/shipyard/dashboard/internal/core/inspect"
	"github.com/shipyard/dashboard/internal/core/ports"
	"github.com/shipyard/dashboard/internal/log"
)

type containersPage struct {
	page
	Containers []domain.Container
}

func (h *Handler) Containers(c *fiber.Ctx) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()
	vm := containersPage{page: h.page(c, currentSession(c), "Containers")}

	containers, err := currentCluster(c).ListContainers(ctx)
	if err != nil {
		if ok, rerr := h.unauthorized(c, err); ok {
			return rerr
		}
		log.Warning(err)
		vm.Error = err.Error()
	}
	vm.Containers = containers
	return c.Render("containers", vm, "layouts/main")
}

type containerPage struct {
	page
	Container *domain.Container
	PortLinks []domain.PortLink
	Charts    inspect.ContainerCharts
}

func (h *Handler) ContainerDetails(c *fiber.Ctx) error {
	vm, err := h.containerPage(c)
	if err != nil {
		return err
	}
	if vm == nil {
		return nil
	}
	return c.Render("container", vm, "layouts/main")
}

// containerPage loads the detail view-model. A nil model with a nil error
// means the response was already written.
func (h *Handler) containerPage(c *fiber.Ctx) (*containerPage, error) {
	ctx, cancel := h.requestContext(c)
	defer cancel()
	id := c.Params("id")

	container, err := currentCluster(c).InspectContainer(ctx, id)
	if err != nil {
		if ok, rerr := h.unauthorized(c, err); ok {
			return nil, rerr
		}
		var reqErr *ports.RequestError
		if errors.As(err, &reqErr) && reqErr.StatusCode == fiber.StatusNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "container "+id+" not found")
		}
		return nil, fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	links := []domain.PortLink{}
	if len(container.Ports) > 0 {
		engineAddr := ""
		if container.Engine != nil {
			engineAddr = container.Engine.Addr
		}
		// published ports are only reachable through a parsable engine address
		links, err = inspect.DerivePortLinks(container.Ports, engineAddr)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
	}

	return &containerPage{
		page:      h.page(c, currentSession(c), container.Name),
		Container: container,
		PortLinks: inspect.SortByContainerPort(links),
		Charts:    inspect.NewContainerCharts(*container),
	}, nil
}

// DestroyContainer removes the container and returns to the listing. A
// rejected destroy stays on the detail view with the backend's answer.
func (h *Handler) DestroyContainer(c *fiber.Ctx) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()
	id := c.Params("id")

	err := currentCluster(c).DestroyContainer(ctx, id)
	h.metrics.destroys.WithLabelValues(result(err)).Inc()
	if err == nil {
		log.Infof("%s destroyed container %s", currentSession(c).Username, id)
		return c.Redirect("/containers")
	}
	if ok, rerr := h.unauthorized(c, err); ok {
		return rerr
	}
	log.Errorf("destroy %s: %v", id, err)

	vm, verr := h.containerPage(c)
	if verr != nil || vm == nil {
		return verr
	}
	vm.Error = "error destroying container: " + payload(err)
	return c.Status(fiber.StatusBadGateway).Render("container", vm, "layouts/main")
}

// payload is what the backend answered for a rejected request, or the
// error itself when the request never got an answer.
func payload(err error) string {
	var reqErr *ports.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Payload
	}
	return err.Error()
}
