package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shipyard/dashboard/internal/core/deploy"
	"github.com/shipyard/dashboard/internal/core/domain"
	"github.com/shipyard/dashboard/internal/log"
)

type deployPage struct {
	page
	Form         deploy.Form
	Types        []string
	Labels       []string
	FieldErrors  map[string]string
	BuildEnabled bool
}

func (h *Handler) newDeployPage(c *fiber.Ctx, form deploy.Form) deployPage {
	return deployPage{
		page:         h.page(c, currentSession(c), "Deploy"),
		Form:         form,
		Types:        domain.DeploymentTypes,
		FieldErrors:  map[string]string{},
		BuildEnabled: h.builder != nil,
	}
}

// loadLabels fills the label choices from the engines. A failure only
// empties the choices, unless the session expired: then the user was
// redirected and loadLabels reports true.
func (h *Handler) loadLabels(c *fiber.Ctx, vm *deployPage) (bool, error) {
	ctx, cancel := h.requestContext(c)
	defer cancel()
	engines, err := currentCluster(c).ListEngines(ctx)
	if err != nil {
		if ok, rerr := h.unauthorized(c, err); ok {
			return true, rerr
		}
		log.Warning(err)
		vm.Labels = []string{}
		return false, nil
	}
	vm.Labels = deploy.AggregateLabels(engines)
	return false, nil
}

func (h *Handler) ShowDeploy(c *fiber.Ctx) error {
	return h.renderDeploy(c, h.newDeployPage(c, deploy.NewForm()), fiber.StatusOK)
}

// Deploy validates the form, builds the request and submits it once per
// requested instance. Nothing is sent for an invalid form; a rejected
// submission shows the backend's answer and is not retried.
func (h *Handler) Deploy(c *fiber.Ctx) error {
	form := deploy.NewForm()
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid deploy form")
	}
	vm := h.newDeployPage(c, form)

	err := deploy.Validate(form)
	if err == nil && form.Repository != "" && h.builder == nil {
		err = &deploy.ValidationError{Fields: []deploy.FieldError{{Field: "repository", Message: "image builds are disabled"}}}
	}
	if err != nil {
		return h.rejectDeploy(c, vm, err)
	}
	req, err := deploy.Build(form)
	if err != nil {
		return h.rejectDeploy(c, vm, err)
	}
	count, err := deploy.ParseCount(form.Count)
	if err != nil {
		return h.rejectDeploy(c, vm, err)
	}

	if form.Repository != "" {
		// builds outlive the request timeout
		if _, err := h.builder.BuildImage(c.UserContext(), form.Repository, req.Name); err != nil {
			log.Errorf("build of %s failed: %v", form.Repository, err)
			vm.Error = err.Error()
			return h.renderDeploy(c, vm, fiber.StatusBadGateway)
		}
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()
	cluster := currentCluster(c)
	for i := 0; i < count; i++ {
		container, err := cluster.DeployContainer(ctx, req)
		h.metrics.deployments.WithLabelValues(result(err)).Inc()
		if err != nil {
			if ok, rerr := h.unauthorized(c, err); ok {
				return rerr
			}
			log.Errorf("deploy of %s failed: %v", req.Name, err)
			vm.Error = payload(err)
			return h.renderDeploy(c, vm, fiber.StatusBadGateway)
		}
		log.Infof("%s deployed %s as %s", currentSession(c).Username, req.Name, container.ID)
	}
	return c.Redirect("/containers")
}

func (h *Handler) rejectDeploy(c *fiber.Ctx, vm deployPage, err error) error {
	var verr *deploy.ValidationError
	if errors.As(err, &verr) {
		for _, f := range verr.Fields {
			vm.FieldErrors[f.Field] = f.Message
		}
	}
	vm.Error = err.Error()
	return h.renderDeploy(c, vm, fiber.StatusUnprocessableEntity)
}

func (h *Handler) renderDeploy(c *fiber.Ctx, vm deployPage, status int) error {
	if done, err := h.loadLabels(c, &vm); done {
		return err
	}
	return c.Status(status).Render("deploy", vm, "layouts/main")
}
