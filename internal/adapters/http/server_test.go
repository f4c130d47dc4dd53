package http

import (
	"context"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shipyard/dashboard/internal/core/domain"
	"github.com/shipyard/dashboard/internal/core/ports"
	"github.com/shipyard/dashboard/internal/core/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "tok-1"

type fakeCluster struct {
	mu sync.Mutex

	containers []domain.Container
	container  *domain.Container
	engines    []domain.Engine
	events     []domain.Event
	info       *domain.ClusterInfo

	inspectErr error
	deployErr  error
	destroyErr error
	eventsErr  error
	infoErr    error
	enginesErr error

	deployed  []*domain.DeploymentRequest
	destroyed []string
}

func (f *fakeCluster) ListContainers(ctx context.Context) ([]domain.Container, error) {
	return f.containers, nil
}

func (f *fakeCluster) InspectContainer(ctx context.Context, id string) (*domain.Container, error) {
	if f.inspectErr != nil {
		return nil, f.inspectErr
	}
	return f.container, nil
}

func (f *fakeCluster) DeployContainer(ctx context.Context, req *domain.DeploymentRequest) (*domain.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deployed = append(f.deployed, req)
	if f.deployErr != nil {
		return nil, f.deployErr
	}
	return &domain.Container{ID: "c" + strconv.Itoa(len(f.deployed))}, nil
}

func (f *fakeCluster) DestroyContainer(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, id)
	return f.destroyErr
}

func (f *fakeCluster) ListEngines(ctx context.Context) ([]domain.Engine, error) {
	return f.engines, f.enginesErr
}

func (f *fakeCluster) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return f.events, f.eventsErr
}

func (f *fakeCluster) ClusterInfo(ctx context.Context) (*domain.ClusterInfo, error) {
	return f.info, f.infoErr
}

type fakeConnector struct {
	cluster  *fakeCluster
	loginErr error
	revoked  []string
}

func (f *fakeConnector) Login(ctx context.Context, username, password string) (string, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	if username != "admin" || password != "shipyard" {
		return "", ports.ErrUnauthorized
	}
	return testToken, nil
}

func (f *fakeConnector) Cluster(s session.Session) (ports.Cluster, error) {
	if s.Token != testToken {
		return nil, ports.ErrUnauthorized
	}
	return f.cluster, nil
}

func (f *fakeConnector) Revoke(token string) {
	f.revoked = append(f.revoked, token)
}

func newFakeConnector() *fakeConnector {
	engine := domain.Engine{ID: "local", Addr: "http://10.0.0.5", Cpus: 4, Memory: 8192, Labels: []string{"web", "db"}}
	return &fakeConnector{
		cluster: &fakeCluster{
			containers: []domain.Container{
				{ID: "0123456789abcdef", Name: "web-1", State: "running", Engine: &engine, Image: domain.Image{Name: "nginx", Cpus: 0.5, Memory: 256, Type: domain.TypeService}},
			},
			container: &domain.Container{
				ID:     "0123456789abcdef",
				Name:   "web-1",
				State:  "running",
				Engine: &engine,
				Image:  domain.Image{Name: "nginx", Cpus: 0.5, Memory: 256, Type: domain.TypeService},
				Ports:  []domain.Port{{Proto: "tcp", Port: 49153, ContainerPort: 80}},
			},
			engines: []domain.Engine{engine},
			events: []domain.Event{
				{Type: "container-run", Time: time.Date(2015, 3, 1, 12, 0, 0, 0, time.UTC), Message: "started web-1"},
			},
			info: &domain.ClusterInfo{Cpus: 4, Memory: 8192, ContainerCount: 1, EngineCount: 1, ImageCount: 3, ReservedCpus: 0.5, ReservedMemory: 256, Version: "0.4.0"},
		},
	}
}

func newTestApp(conn *fakeConnector) *fiber.App {
	return NewApp(Options{
		Connector:       conn,
		RequestTimeout:  time.Second,
		InsecureCookies: true,
		Version:         "0.4.0",
	})
}

func authenticated(req *nethttp.Request) *nethttp.Request {
	req.AddCookie(&nethttp.Cookie{Name: usernameCookie, Value: "admin"})
	req.AddCookie(&nethttp.Cookie{Name: tokenCookie, Value: testToken})
	return req
}

func postForm(target string, values url.Values) *nethttp.Request {
	req := httptest.NewRequest(nethttp.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func do(t *testing.T, app *fiber.App, req *nethttp.Request) (*nethttp.Response, string) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, string(body)
}

func cookie(resp *nethttp.Response, name string) *nethttp.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginPage(t *testing.T) {
	app := newTestApp(newFakeConnector())

	resp, body := do(t, app, httptest.NewRequest(nethttp.MethodGet, "/login", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `action="/login"`)
	assert.Contains(t, body, "0.4.0")
}

func TestLoginInvalidCredentials(t *testing.T) {
	app := newTestApp(newFakeConnector())

	resp, body := do(t, app, postForm("/login", url.Values{"username": {"admin"}, "password": {"wrong"}}))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, msgInvalidLogin)
	assert.Nil(t, cookie(resp, tokenCookie))
}

func TestLoginBackendFailure(t *testing.T) {
	conn := newFakeConnector()
	conn.loginErr = errors.New("connection refused")
	app := newTestApp(conn)

	resp, body := do(t, app, postForm("/login", url.Values{"username": {"admin"}, "password": {"shipyard"}}))
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body, "login failed: connection refused")
}

func TestLoginSuccess(t *testing.T) {
	app := newTestApp(newFakeConnector())

	resp, _ := do(t, app, postForm("/login", url.Values{"username": {"admin"}, "password": {"shipyard"}}))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	token := cookie(resp, tokenCookie)
	require.NotNil(t, token)
	assert.Equal(t, testToken, token.Value)
	assert.True(t, token.HttpOnly)

	username := cookie(resp, usernameCookie)
	require.NotNil(t, username)
	assert.Equal(t, "admin", username.Value)
}

func TestRedirectsWithoutSession(t *testing.T) {
	app := newTestApp(newFakeConnector())

	for _, path := range []string{"/dashboard", "/containers", "/containers/abc", "/deploy", "/engines", "/events"} {
		resp, _ := do(t, app, httptest.NewRequest(nethttp.MethodGet, path, nil))
		assert.Equal(t, fiber.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/login", resp.Header.Get("Location"), path)
	}
}

func TestRedirectsWithExpiredToken(t *testing.T) {
	app := newTestApp(newFakeConnector())

	req := httptest.NewRequest(nethttp.MethodGet, "/containers", nil)
	req.AddCookie(&nethttp.Cookie{Name: usernameCookie, Value: "admin"})
	req.AddCookie(&nethttp.Cookie{Name: tokenCookie, Value: "stale"})
	resp, _ := do(t, app, req)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestRootRedirectsToDashboard(t *testing.T) {
	app := newTestApp(newFakeConnector())

	resp, _ := do(t, app, httptest.NewRequest(nethttp.MethodGet, "/", nil))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
}

func TestLogout(t *testing.T) {
	conn := newFakeConnector()
	app := newTestApp(conn)

	resp, _ := do(t, app, authenticated(httptest.NewRequest(nethttp.MethodGet, "/logout", nil)))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Equal(t, []string{testToken}, conn.revoked)

	token := cookie(resp, tokenCookie)
	require.NotNil(t, token)
	assert.Empty(t, token.Value)
}

func TestDashboard(t *testing.T) {
	app := newTestApp(newFakeConnector())

	resp, body := do(t, app, authenticated(httptest.NewRequest(nethttp.MethodGet, "/dashboard", nil)))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "started web-1")
	assert.Contains(t, body, "Reserved: 0.5")
	assert.Contains(t, body, "admin")
}

func TestDashboardPartialFailure(t *testing.T) {
	conn := newFakeConnector()
	conn.cluster.eventsErr = errors.New("events unavailable")
	app := newTestApp(conn)

	resp, body := do(t, app, authenticated(httptest.NewRequest(nethttp.MethodGet, "/dashboard", nil)))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "events unavailable")
	assert.Contains(t, body, "Reserved: 0.5")
}

func TestContainers(t *testing.T) {
	app := newTestApp(newFakeConnector())

	resp, body := do(t, app, authenticated(httptest.NewRequest(nethttp.MethodGet, "/containers", nil)))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `href="/containers/0123456789abcdef"`)
	assert.Contains(t, body, "0123456789ab<")
	assert.Contains(t, body, "nginx")
}

func TestContainerDetails(t *testing.T) {
	app := newTestApp(newFakeConnector())

	resp, body := do(t, app, authenticated(httptest.NewRequest(nethttp.MethodGet, "/containers/0123456789abcdef", nil)))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `href="http://10.0.0.5:49153"`)
	assert.Contains(t, body, "width: 12%")
}

func TestContainerDetailsWithoutEngine(t *testing.T) {
	conn := newFakeConnector()
	conn.cluster.container.Engine = nil
	conn.cluster.container.Ports = nil
	app := newTestApp(conn)

	resp, body := do(t, app, authenticated(httptest.NewRequest(nethttp.MethodGet, "/containers/0123456789abcdef", nil)))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "no published ports")
}

func TestContainerDetailsUnreachableEngine(t *testing.T) {
	conn := newFakeConnector()
	conn.cluster.container.Engine = nil
	app := newTestApp(conn)

	resp, _ := do(t, app, authenticated(httptest.NewRequest(nethttp.MethodGet, "/containers/0123456789abcdef", nil)))
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestContainerDetailsNotFound(t *testing.T) {
	conn := newFakeConnector()
	conn.cluster.inspectErr = &ports.RequestError{StatusCode: nethttp.StatusNotFound, Payload: "no such container"}
	app := newTestApp(conn)

	resp, body := do(t, app, authenticated(httptest.NewRequest(nethttp.MethodGet, "/containers/missing", nil)))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "container missing not found")
}

func TestDestroyContainer(t *testing.T) {
	conn := newFakeConnector()
	app := newTestApp(conn)

	resp, _ := do(t, app, authenticated(httptest.NewRequest(nethttp.MethodPost, "/containers/0123456789abcdef/destroy", nil)))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/containers", resp.Header.Get("Location"))
	assert.Equal(t, []string{"0123456789abcdef"}, conn.cluster.destroyed)
}

func TestDestroyContainerRejected(t *testing.T) {
	conn := newFakeConnector()
	conn.cluster.destroyErr = &ports.RequestError{StatusCode: nethttp.StatusInternalServerError, Payload: "container is locked"}
	app := newTestApp(conn)

	resp, body := do(t, app, authenticated(httptest.NewRequest(nethttp.MethodPost, "/containers/0123456789abcdef/destroy", nil)))
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body, "error destroying container: container is locked")
	assert.Contains(t, body, "web-1")
}

func TestDeployPage(t *testing.T) {
	app := newTestApp(newFakeConnector())

	resp, body := do(t, app, authenticated(httptest.NewRequest(nethttp.MethodGet, "/deploy", nil)))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `value="0.1"`)
	assert.Contains(t, body, `value="256"`)
	assert.Contains(t, body, `<option value="web"`)
	assert.Contains(t, body, `<option value="db"`)
	assert.NotContains(t, body, `name="repository"`)
}

func TestDeploy(t *testing.T) {
	conn := newFakeConnector()
	app := newTestApp(conn)

	form := url.Values{
		"name":        {"nginx:latest"},
		"cpus":        {"0.5"},
		"memory":      {"512"},
		"environment": {"A=1 B=x=y"},
		"hostname":    {"web"},
		"type":        {domain.TypeService},
		"label":       {"web"},
		"args":        {"-g daemon"},
		"ports":       {"tcp/8080:80"},
		"count":       {"2"},
	}
	resp, _ := do(t, app, authenticated(postForm("/deploy", form)))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/containers", resp.Header.Get("Location"))

	require.Len(t, conn.cluster.deployed, 2)
	req := conn.cluster.deployed[0]
	assert.Equal(t, "nginx:latest", req.Name)
	assert.Equal(t, 0.5, req.Cpus)
	assert.Equal(t, 512, req.Memory)
	assert.Equal(t, map[string]string{"A": "1", "B": "x=y"}, req.Environment)
	assert.Equal(t, "web", req.Hostname)
	assert.Equal(t, []string{"web"}, req.Labels)
	assert.Equal(t, []string{"-g", "daemon"}, req.Args)
	assert.Equal(t, []domain.Port{{Proto: "tcp", Port: 8080, ContainerPort: 80}}, req.BindPorts)
	assert.True(t, req.Publish)
}

func TestDeployInvalidForm(t *testing.T) {
	conn := newFakeConnector()
	app := newTestApp(conn)

	form := url.Values{
		"name":        {""},
		"cpus":        {"lots"},
		"memory":      {"256"},
		"type":        {"daemon"},
		"environment": {"NOVALUE"},
	}
	resp, body := do(t, app, authenticated(postForm("/deploy", form)))
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "image name is required")
	assert.Contains(t, body, "cpus must be a positive number")
	assert.Contains(t, body, "type must be one of")
	assert.Empty(t, conn.cluster.deployed)
}

func TestDeployRepositoryWithoutBuilder(t *testing.T) {
	conn := newFakeConnector()
	app := newTestApp(conn)

	form := url.Values{"name": {"app"}, "type": {domain.TypeService}, "repository": {"https://example.com/app.git"}}
	resp, body := do(t, app, authenticated(postForm("/deploy", form)))
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "image builds are disabled")
	assert.Empty(t, conn.cluster.deployed)
}

func TestDeployRejected(t *testing.T) {
	conn := newFakeConnector()
	conn.cluster.deployErr = &ports.RequestError{StatusCode: nethttp.StatusInternalServerError, Payload: "no resources available to schedule container"}
	app := newTestApp(conn)

	form := url.Values{"name": {"nginx"}, "type": {domain.TypeService}, "count": {"3"}}
	resp, body := do(t, app, authenticated(postForm("/deploy", form)))
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body, "no resources available to schedule container")
	assert.Len(t, conn.cluster.deployed, 1)
}

func TestDeployWithoutEngines(t *testing.T) {
	conn := newFakeConnector()
	conn.cluster.enginesErr = errors.New("engines unavailable")
	app := newTestApp(conn)

	resp, body := do(t, app, authenticated(httptest.NewRequest(nethttp.MethodGet, "/deploy", nil)))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, `<option value="web"`)
}

func TestEngines(t *testing.T) {
	app := newTestApp(newFakeConnector())

	resp, body := do(t, app, authenticated(httptest.NewRequest(nethttp.MethodGet, "/engines", nil)))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "http://10.0.0.5")
	assert.Contains(t, body, "web, db")
}

func TestEvents(t *testing.T) {
	app := newTestApp(newFakeConnector())

	resp, body := do(t, app, authenticated(httptest.NewRequest(nethttp.MethodGet, "/events", nil)))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "2015-03-01 12:00:00")
	assert.Contains(t, body, "started web-1")
}

func TestMetrics(t *testing.T) {
	app := newTestApp(newFakeConnector())

	do(t, app, postForm("/login", url.Values{"username": {"admin"}, "password": {"wrong"}}))

	resp, body := do(t, app, httptest.NewRequest(nethttp.MethodGet, "/metrics", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `shipyard_dashboard_logins_total{result="error"} 1`)
}

func TestStaticAssets(t *testing.T) {
	app := newTestApp(newFakeConnector())

	resp, body := do(t, app, httptest.NewRequest(nethttp.MethodGet, "/static/app.css", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, ".header")
}

func TestProxyPort(t *testing.T) {
	var gotPath string
	target := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		gotPath = r.URL.Path
		io.WriteString(w, "hello from the container")
	}))
	defer target.Close()

	u, err := url.Parse(target.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	conn := newFakeConnector()
	conn.cluster.container.Engine = &domain.Engine{ID: "local", Addr: "http://" + u.Hostname()}
	conn.cluster.container.Ports = []domain.Port{{Proto: "tcp", Port: port, ContainerPort: 80}}
	app := newTestApp(conn)

	resp, body := do(t, app, authenticated(httptest.NewRequest(nethttp.MethodGet, "/containers/0123456789abcdef/ports/80/status", nil)))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello from the container", body)
	assert.Equal(t, "/status", gotPath)
}

func TestProxyPortDropsSession(t *testing.T) {
	var gotCookie, gotToken string
	target := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotToken = r.Header.Get("X-Access-Token")
	}))
	defer target.Close()

	u, err := url.Parse(target.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	conn := newFakeConnector()
	conn.cluster.container.Engine = &domain.Engine{ID: "local", Addr: "http://" + u.Hostname()}
	conn.cluster.container.Ports = []domain.Port{{Proto: "tcp", Port: port, ContainerPort: 80}}
	app := newTestApp(conn)

	req := authenticated(httptest.NewRequest(nethttp.MethodGet, "/containers/0123456789abcdef/ports/80/", nil))
	req.AddCookie(&nethttp.Cookie{Name: "app_session", Value: "abc"})
	req.Header.Set("X-Access-Token", "admin:"+testToken)
	resp, _ := do(t, app, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.NotContains(t, gotCookie, testToken)
	assert.NotContains(t, gotCookie, tokenCookie)
	assert.NotContains(t, gotCookie, usernameCookie)
	assert.Contains(t, gotCookie, "app_session=abc")
	assert.Empty(t, gotToken)
}

func TestProxyPortNotPublished(t *testing.T) {
	app := newTestApp(newFakeConnector())

	resp, _ := do(t, app, authenticated(httptest.NewRequest(nethttp.MethodGet, "/containers/0123456789abcdef/ports/443/", nil)))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
