package shipyard

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/shipyard/dashboard/internal/core/domain"
	"github.com/shipyard/dashboard/internal/core/ports"
	"github.com/shipyard/dashboard/internal/core/session"
)

// Connector implements ports.Connector against a Shipyard controller.
type Connector struct {
	client *RestClient
}

func NewConnector(client *RestClient) *Connector {
	return &Connector{client: client}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AuthToken string `json:"auth_token"`
}

func (c *Connector) Login(ctx context.Context, username, password string) (string, error) {
	var res loginResponse
	err := c.client.Call(ctx, http.MethodPost, "/auth/login", loginRequest{Username: username, Password: password}, &res)
	if err != nil {
		var rerr *ports.RequestError
		if errors.As(err, &rerr) && rerr.StatusCode == http.StatusForbidden {
			return "", ports.ErrUnauthorized
		}
		return "", err
	}
	if res.AuthToken == "" {
		return "", ports.ErrUnauthorized
	}
	return res.AuthToken, nil
}

// Cluster returns a client sending the session token on every request.
// The controller verifies the token; a rejected one surfaces as
// ports.ErrUnauthorized from the first call.
func (c *Connector) Cluster(s session.Session) (ports.Cluster, error) {
	if !s.IsLoggedIn() {
		return nil, ports.ErrUnauthorized
	}
	return &Cluster{client: c.client.WithHeader(AccessTokenHeader, s.AccessToken())}, nil
}

// Cluster implements ports.Cluster for one session.
type Cluster struct {
	client *RestClient
}

func (c *Cluster) ListContainers(ctx context.Context) ([]domain.Container, error) {
	containers := []domain.Container{}
	if err := c.client.Call(ctx, http.MethodGet, "/api/containers", nil, &containers); err != nil {
		return nil, errors.Wrap(err, "failed to list containers")
	}
	return containers, nil
}

func (c *Cluster) InspectContainer(ctx context.Context, id string) (*domain.Container, error) {
	var container domain.Container
	if err := c.client.Call(ctx, http.MethodGet, "/api/containers/"+url.PathEscape(id), nil, &container); err != nil {
		return nil, errors.Wrapf(err, "failed to inspect container %s", id)
	}
	return &container, nil
}

func (c *Cluster) DeployContainer(ctx context.Context, req *domain.DeploymentRequest) (*domain.Container, error) {
	var container domain.Container
	if err := c.client.Call(ctx, http.MethodPost, "/api/containers", req, &container); err != nil {
		return nil, errors.Wrapf(err, "failed to deploy %s", req.Name)
	}
	return &container, nil
}

func (c *Cluster) DestroyContainer(ctx context.Context, id string) error {
	if err := c.client.Call(ctx, http.MethodDelete, "/api/containers/"+url.PathEscape(id), nil, nil); err != nil {
		return errors.Wrapf(err, "failed to destroy container %s", id)
	}
	return nil
}

// engineRecord is the controller's engine entry, which nests the engine
// next to its TLS material.
type engineRecord struct {
	ID     string        `json:"id"`
	Engine domain.Engine `json:"engine"`
}

func (c *Cluster) ListEngines(ctx context.Context) ([]domain.Engine, error) {
	var records []engineRecord
	if err := c.client.Call(ctx, http.MethodGet, "/api/engines", nil, &records); err != nil {
		return nil, errors.Wrap(err, "failed to list engines")
	}
	engines := make([]domain.Engine, 0, len(records))
	for _, r := range records {
		e := r.Engine
		if e.ID == "" {
			e.ID = r.ID
		}
		engines = append(engines, e)
	}
	return engines, nil
}

func (c *Cluster) ListEvents(ctx context.Context) ([]domain.Event, error) {
	events := []domain.Event{}
	if err := c.client.Call(ctx, http.MethodGet, "/api/events", nil, &events); err != nil {
		return nil, errors.Wrap(err, "failed to list events")
	}
	return events, nil
}

func (c *Cluster) ClusterInfo(ctx context.Context) (*domain.ClusterInfo, error) {
	var info domain.ClusterInfo
	if err := c.client.Call(ctx, http.MethodGet, "/api/cluster/info", nil, &info); err != nil {
		return nil, errors.Wrap(err, "failed to get cluster info")
	}
	return &info, nil
}
