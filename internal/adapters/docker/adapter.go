package docker

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"
	"github.com/shipyard/dashboard/internal/core/domain"
	"github.com/shipyard/dashboard/internal/core/ports"
	"github.com/shipyard/dashboard/internal/log"
)

// Container labels recording what the dashboard deployed.
const (
	labelType        = "io.shipyard.type"
	labelCpus        = "io.shipyard.cpus"
	labelMemory      = "io.shipyard.memory"
	labelConstraints = "io.shipyard.labels"
)

const mib = 1024 * 1024

// Adapter implements ports.Cluster for a single local Docker engine, which
// is presented as a cluster of one.
type Adapter struct {
	engine     engineAPI
	engineAddr string
	events     *eventLog
}

// NewAdapter connects to the engine configured in the environment
// (DOCKER_HOST etc). engineAddr is the address users reach published
// ports on.
func NewAdapter(engineAddr string) (*Adapter, error) {
	engine, err := newClientEngine()
	if err != nil {
		return nil, err
	}
	return newAdapter(engine, engineAddr), nil
}

func newAdapter(engine engineAPI, engineAddr string) *Adapter {
	return &Adapter{
		engine:     engine,
		engineAddr: engineAddr,
		events:     newEventLog(defaultEventLogSize),
	}
}

// Close releases the engine connection.
func (a *Adapter) Close() error {
	return a.engine.close()
}

func (a *Adapter) localEngine(ctx context.Context) (*domain.Engine, hostInfo, error) {
	info, err := a.engine.host(ctx)
	if err != nil {
		return nil, info, err
	}
	id := info.Name
	if id == "" {
		id = info.ID
	}
	return &domain.Engine{
		ID:     id,
		Addr:   a.engineAddr,
		Cpus:   float64(info.NCPU),
		Memory: float64(info.MemTotal) / mib,
		Labels: info.Labels,
	}, info, nil
}

// ListContainers returns every container of the engine, running or not.
func (a *Adapter) ListContainers(ctx context.Context) ([]domain.Container, error) {
	engine, _, err := a.localEngine(ctx)
	if err != nil {
		return nil, err
	}
	containers, err := a.engine.list(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Container, 0, len(containers))
	for _, c := range containers {
		result = append(result, fromSummary(c, engine))
	}
	return result, nil
}

func (a *Adapter) InspectContainer(ctx context.Context, id string) (*domain.Container, error) {
	engine, _, err := a.localEngine(ctx)
	if err != nil {
		return nil, err
	}
	j, err := a.engine.inspect(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to inspect container %s", id)
	}
	if j.ContainerJSONBase == nil {
		return nil, errors.Errorf("failed to inspect container %s: empty response", id)
	}
	c := fromInspect(j, engine)
	return &c, nil
}

// DeployContainer runs req on the engine. Label constraints the engine
// does not carry are rejected the way the controller's label scheduler
// would.
func (a *Adapter) DeployContainer(ctx context.Context, req *domain.DeploymentRequest) (*domain.Container, error) {
	engine, _, err := a.localEngine(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range req.Labels {
		if !hasLabel(engine.Labels, l) {
			return nil, &ports.RequestError{
				StatusCode: http.StatusInternalServerError,
				Payload:    fmt.Sprintf("no engine with label %q is available to run %s", l, req.Name),
			}
		}
	}

	config, hostConfig, err := toContainerConfig(req)
	if err != nil {
		return nil, &ports.RequestError{StatusCode: http.StatusBadRequest, Payload: err.Error()}
	}
	id, err := a.engine.run(ctx, config, hostConfig)
	if err != nil {
		return nil, &ports.RequestError{StatusCode: http.StatusInternalServerError, Payload: err.Error()}
	}
	log.Infof("started %s on %s", shortID(id), engine.ID)
	a.events.record("container-run", fmt.Sprintf("started %s (%s)", shortID(id), req.Name), id, engine.ID)

	return &domain.Container{
		ID:     id,
		State:  "running",
		Engine: engine,
		Image:  imageFromRequest(req),
	}, nil
}

func (a *Adapter) DestroyContainer(ctx context.Context, id string) error {
	if err := a.engine.remove(ctx, id); err != nil {
		return &ports.RequestError{StatusCode: http.StatusInternalServerError, Payload: err.Error()}
	}
	a.events.record("container-destroy", "destroyed "+shortID(id), id, "")
	return nil
}

// ListEngines returns the local engine.
func (a *Adapter) ListEngines(ctx context.Context) ([]domain.Engine, error) {
	engine, _, err := a.localEngine(ctx)
	if err != nil {
		return nil, err
	}
	return []domain.Engine{*engine}, nil
}

// ListEvents returns what was done through this dashboard, newest first.
func (a *Adapter) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return a.events.list(), nil
}

// ClusterInfo reports engine capacity and what running containers
// deployed from the dashboard reserved.
func (a *Adapter) ClusterInfo(ctx context.Context) (*domain.ClusterInfo, error) {
	engine, info, err := a.localEngine(ctx)
	if err != nil {
		return nil, err
	}
	containers, err := a.engine.list(ctx)
	if err != nil {
		return nil, err
	}

	ci := &domain.ClusterInfo{
		Cpus:           engine.Cpus,
		Memory:         engine.Memory,
		ContainerCount: len(containers),
		EngineCount:    1,
		ImageCount:     info.Images,
		Version:        "docker " + info.ServerVersion,
	}
	for _, c := range containers {
		if c.State != "running" {
			continue
		}
		ci.ReservedCpus += labelFloat(c.Labels, labelCpus)
		ci.ReservedMemory += labelFloat(c.Labels, labelMemory)
	}
	return ci, nil
}

func toContainerConfig(req *domain.DeploymentRequest) (*container.Config, *container.HostConfig, error) {
	env := make([]string, 0, len(req.Environment))
	for k, v := range req.Environment {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)

	exposed := nat.PortSet{}
	bindings := nat.PortMap{}
	for _, p := range req.BindPorts {
		port, err := nat.NewPort(p.Proto, strconv.Itoa(p.ContainerPort))
		if err != nil {
			return nil, nil, errors.Wrapf(err, "invalid port %s/%d", p.Proto, p.ContainerPort)
		}
		exposed[port] = struct{}{}
		hostPort := ""
		if p.Port != 0 {
			hostPort = strconv.Itoa(p.Port)
		}
		bindings[port] = append(bindings[port], nat.PortBinding{HostPort: hostPort})
	}

	config := &container.Config{
		Image:        req.Name,
		Hostname:     req.Hostname,
		Env:          env,
		Cmd:          req.Args,
		ExposedPorts: exposed,
		Labels: map[string]string{
			labelType:        req.Type,
			labelCpus:        strconv.FormatFloat(req.Cpus, 'f', -1, 64),
			labelMemory:      strconv.Itoa(req.Memory),
			labelConstraints: strings.Join(req.Labels, ","),
		},
	}
	hostConfig := &container.HostConfig{
		PortBindings:    bindings,
		PublishAllPorts: req.Publish,
		Resources: container.Resources{
			NanoCPUs: int64(req.Cpus * 1e9),
			Memory:   int64(req.Memory) * mib,
		},
	}
	return config, hostConfig, nil
}

func imageFromRequest(req *domain.DeploymentRequest) domain.Image {
	return domain.Image{
		Name:        req.Name,
		Cpus:        req.Cpus,
		Memory:      float64(req.Memory),
		Environment: req.Environment,
		Hostname:    req.Hostname,
		Type:        req.Type,
		Labels:      req.Labels,
		Args:        req.Args,
	}
}

func fromSummary(c types.Container, engine *domain.Engine) domain.Container {
	// Use the first name if available, remove slash
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	var ports []domain.Port
	for _, p := range c.Ports {
		if p.PublicPort == 0 {
			continue
		}
		ports = append(ports, domain.Port{
			Proto:         p.Type,
			Port:          int(p.PublicPort),
			ContainerPort: int(p.PrivatePort),
		})
	}

	return domain.Container{
		ID:     c.ID,
		Name:   name,
		State:  c.State,
		Engine: engine,
		Image: domain.Image{
			Name:   c.Image,
			Cpus:   labelFloat(c.Labels, labelCpus),
			Memory: labelFloat(c.Labels, labelMemory),
			Type:   c.Labels[labelType],
			Labels: splitLabels(c.Labels[labelConstraints]),
		},
		Ports: ports,
	}
}

func fromInspect(j types.ContainerJSON, engine *domain.Engine) domain.Container {
	c := domain.Container{
		ID:     j.ID,
		Name:   strings.TrimPrefix(j.Name, "/"),
		Engine: engine,
	}
	if j.State != nil {
		c.State = j.State.Status
	}
	if j.HostConfig != nil {
		c.Image.Cpus = float64(j.HostConfig.NanoCPUs) / 1e9
		c.Image.Memory = float64(j.HostConfig.Memory) / mib
	}
	if j.Config != nil {
		env := make(map[string]string, len(j.Config.Env))
		for _, kv := range j.Config.Env {
			k, v, _ := strings.Cut(kv, "=")
			env[k] = v
		}
		c.Image.Name = j.Config.Image
		c.Image.Environment = env
		c.Image.Hostname = j.Config.Hostname
		c.Image.Args = j.Config.Cmd
		c.Image.Type = j.Config.Labels[labelType]
		c.Image.Labels = splitLabels(j.Config.Labels[labelConstraints])
	}
	if j.NetworkSettings != nil {
		for port, bindings := range j.NetworkSettings.Ports {
			for _, b := range bindings {
				hostPort, err := strconv.Atoi(b.HostPort)
				if err != nil {
					continue
				}
				c.Ports = append(c.Ports, domain.Port{
					Proto:         port.Proto(),
					Port:          hostPort,
					ContainerPort: port.Int(),
				})
			}
		}
		sort.Slice(c.Ports, func(i, k int) bool {
			if c.Ports[i].ContainerPort != c.Ports[k].ContainerPort {
				return c.Ports[i].ContainerPort < c.Ports[k].ContainerPort
			}
			if c.Ports[i].Proto != c.Ports[k].Proto {
				return c.Ports[i].Proto < c.Ports[k].Proto
			}
			return c.Ports[i].Port < c.Ports[k].Port
		})
	}
	return c
}

func hasLabel(labels []string, l string) bool {
	for _, v := range labels {
		if v == l {
			return true
		}
	}
	return false
}

func splitLabels(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func labelFloat(labels map[string]string, key string) float64 {
	v, err := strconv.ParseFloat(labels[key], 64)
	if err != nil {
		return 0
	}
	return v
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
