package http

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shipyard/dashboard/internal/core/ports"
	"github.com/shipyard/dashboard/internal/core/session"
	"github.com/shipyard/dashboard/internal/log"
)

//go:embed views static
var assets embed.FS

// Options configures the dashboard application.
type Options struct {
	Connector ports.Connector
	// Builder builds images from git repositories. Nil disables the
	// repository field of the deploy form.
	Builder         ports.BuilderService
	RequestTimeout  time.Duration
	InsecureCookies bool
	// StaticDir overrides the embedded static assets.
	StaticDir string
	Version   string
	// AccessLog enables per-request logging.
	AccessLog bool
}

// Handler holds the view controllers.
type Handler struct {
	connector ports.Connector
	builder   ports.BuilderService
	sessions  *sessionStore
	metrics   *Metrics
	timeout   time.Duration
	version   string
}

// NewApp builds the dashboard with its routes and middleware.
func NewApp(opts Options) *fiber.App {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	h := &Handler{
		connector: opts.Connector,
		builder:   opts.Builder,
		sessions:  &sessionStore{secure: !opts.InsecureCookies},
		metrics:   NewMetrics(registry),
		timeout:   opts.RequestTimeout,
		version:   opts.Version,
	}

	app := fiber.New(fiber.Config{
		Views:                 newViewEngine(),
		DisableStartupMessage: true,
		ErrorHandler:          h.errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		}))
	}

	if opts.StaticDir != "" {
		app.Static("/static", opts.StaticDir)
	} else {
		static, _ := fs.Sub(assets, "static")
		app.Use("/static", filesystem.New(filesystem.Config{Root: http.FS(static)}))
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/dashboard")
	})
	app.Get("/login", h.ShowLogin)
	app.Post("/login", h.Login)
	app.Get("/logout", h.Logout)

	auth := h.requireSession
	app.Get("/dashboard", auth, h.Dashboard)
	app.Get("/containers", auth, h.Containers)
	app.Get("/containers/:id", auth, h.ContainerDetails)
	app.Post("/containers/:id/destroy", auth, h.DestroyContainer)
	app.All("/containers/:id/ports/:port/*", auth, h.ProxyPort)
	app.Get("/deploy", auth, h.ShowDeploy)
	app.Post("/deploy", auth, h.Deploy)
	app.Get("/engines", auth, h.Engines)
	app.Get("/events", auth, h.Events)

	return app
}

func newViewEngine() *html.Engine {
	views, err := fs.Sub(assets, "views")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(views), ".html")
	for name, fn := range templateFuncs {
		engine.AddFunc(name, fn)
	}
	return engine
}

// requestContext bounds the backend calls of one view.
func (h *Handler) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), h.timeout)
}

func (h *Handler) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		code = ferr.Code
	}
	if code >= 500 {
		log.Errorf("%s %s: %v", c.Method(), c.Path(), err)
	}
	s := h.sessions.get(c)
	return c.Status(code).Render("error", errorPage{
		page:    h.page(c, s, "Error"),
		Status:  code,
		Message: err.Error(),
	}, "layouts/main")
}

// sessionLocal and clusterLocal key the request locals set by requireSession.
const (
	sessionLocal = "session"
	clusterLocal = "cluster"
)

// requireSession binds the session of the request to a cluster, sending
// anyone without a valid token to the login page.
func (h *Handler) requireSession(c *fiber.Ctx) error {
	s := h.sessions.get(c)
	if !s.IsLoggedIn() {
		return c.Redirect("/login")
	}
	cluster, err := h.connector.Cluster(s)
	if err != nil {
		if errors.Is(err, ports.ErrUnauthorized) {
			h.sessions.delete(c)
			return c.Redirect("/login")
		}
		return err
	}
	c.Locals(sessionLocal, s)
	c.Locals(clusterLocal, cluster)
	return c.Next()
}

func currentSession(c *fiber.Ctx) session.Session {
	s, _ := c.Locals(sessionLocal).(session.Session)
	return s
}

func currentCluster(c *fiber.Ctx) ports.Cluster {
	cluster, _ := c.Locals(clusterLocal).(ports.Cluster)
	return cluster
}

// unauthorized reports whether err means the session expired, in which
// case the user has been sent back to the login page.
func (h *Handler) unauthorized(c *fiber.Ctx, err error) (bool, error) {
	if !errors.Is(err, ports.ErrUnauthorized) {
		return false, nil
	}
	h.sessions.delete(c)
	return true, c.Redirect("/login")
}
