package http

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/shipyard/dashboard/internal/adapters/shipyard"
	"github.com/shipyard/dashboard/internal/core/inspect"
	"github.com/shipyard/dashboard/internal/log"
)

// ProxyPort forwards /containers/:id/ports/:port/* to the port link of
// the container's published port, for users who can reach the dashboard
// but not the engines.
func (h *Handler) ProxyPort(c *fiber.Ctx) error {
	containerPort, err := strconv.Atoi(c.Params("port"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid port")
	}

	ctx, cancel := h.requestContext(c)
	container, err := currentCluster(c).InspectContainer(ctx, c.Params("id"))
	cancel()
	if err != nil {
		if ok, rerr := h.unauthorized(c, err); ok {
			return rerr
		}
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	if container.Engine == nil {
		return fiber.NewError(fiber.StatusBadGateway, "container has no engine")
	}

	links, err := inspect.DerivePortLinks(container.Ports, container.Engine.Addr)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	var target string
	for _, l := range links {
		if l.ContainerPort == containerPort {
			target = l.Link
			break
		}
	}
	if target == "" {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("port %d is not published", containerPort))
	}

	remote, err := url.Parse(target)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "invalid target URL")
	}
	rest := "/" + c.Params("*")

	proxy := httputil.NewSingleHostReverseProxy(remote)

	// send the remainder of the path, with the Host header of the target
	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		originalDirector(req)
		req.Host = remote.Host
		req.URL.Path = rest
		req.URL.RawPath = ""
		stripSession(req)
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warningf("proxy to %s: %v", target, err)
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(fmt.Sprintf("proxy error: target=%s error=%v", target, err)))
	}

	return adaptor.HTTPHandler(proxy)(c)
}

// stripSession removes the dashboard credentials from a request leaving
// for a container. Cookies of the container's own application are kept.
func stripSession(req *http.Request) {
	cookies := req.Cookies()
	req.Header.Del("Cookie")
	for _, ck := range cookies {
		if ck.Name == tokenCookie || ck.Name == usernameCookie {
			continue
		}
		req.AddCookie(ck)
	}
	req.Header.Del(shipyard.AccessTokenHeader)
}
