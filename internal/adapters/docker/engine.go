package docker

import (
	"context"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/pkg/errors"
	"github.com/shipyard/dashboard/internal/log"
)

// hostInfo is the part of the daemon info the dashboard shows.
type hostInfo struct {
	ID            string
	Name          string
	NCPU          int
	MemTotal      int64
	Labels        []string
	Images        int
	ServerVersion string
}

// engineAPI is the subset of the Docker daemon the adapter drives.
type engineAPI interface {
	list(ctx context.Context) ([]types.Container, error)
	inspect(ctx context.Context, id string) (types.ContainerJSON, error)
	run(ctx context.Context, config *container.Config, hostConfig *container.HostConfig) (string, error)
	remove(ctx context.Context, id string) error
	host(ctx context.Context) (hostInfo, error)
	close() error
}

// clientEngine implements engineAPI with the Docker SDK.
type clientEngine struct {
	cli *client.Client
}

func newClientEngine() (*clientEngine, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create docker client")
	}
	return &clientEngine{cli: cli}, nil
}

func (e *clientEngine) list(ctx context.Context) ([]types.Container, error) {
	containers, err := e.cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list containers")
	}
	return containers, nil
}

func (e *clientEngine) inspect(ctx context.Context, id string) (types.ContainerJSON, error) {
	return e.cli.ContainerInspect(ctx, id)
}

// run pulls the image, then creates and starts the container.
func (e *clientEngine) run(ctx context.Context, config *container.Config, hostConfig *container.HostConfig) (string, error) {
	reader, err := e.cli.ImagePull(ctx, config.Image, types.ImagePullOptions{})
	if err != nil {
		return "", errors.Wrap(err, "failed to pull image")
	}
	// the pull only completes once its progress stream is drained
	err = jsonmessage.DisplayJSONMessagesStream(reader, io.Discard, 0, false, nil)
	reader.Close()
	if err != nil {
		return "", errors.Wrap(err, "failed to pull image")
	}
	log.Debugf("pulled image %s", config.Image)

	resp, err := e.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, "")
	if err != nil {
		return "", errors.Wrap(err, "failed to create container")
	}

	if err := e.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", errors.Wrap(err, "failed to start container")
	}
	return resp.ID, nil
}

func (e *clientEngine) remove(ctx context.Context, id string) error {
	return e.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true, RemoveVolumes: true})
}

func (e *clientEngine) host(ctx context.Context) (hostInfo, error) {
	info, err := e.cli.Info(ctx)
	if err != nil {
		return hostInfo{}, errors.Wrap(err, "failed to get engine info")
	}
	return hostInfo{
		ID:            info.ID,
		Name:          info.Name,
		NCPU:          info.NCPU,
		MemTotal:      info.MemTotal,
		Labels:        info.Labels,
		Images:        info.Images,
		ServerVersion: info.ServerVersion,
	}, nil
}

func (e *clientEngine) close() error {
	return e.cli.Close()
}
