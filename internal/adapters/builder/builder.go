package builder

import (
	"context"
	"io"
	"os"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/go-git/go-git/v5"
	"github.com/pkg/errors"
	"github.com/shipyard/dashboard/internal/log"
)

// Adapter implements ports.BuilderService with a local Docker engine.
type Adapter struct {
	cli   *client.Client
	clone func(ctx context.Context, dir, repoURL string) error
}

func NewBuilderAdapter() (*Adapter, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create docker client")
	}
	return &Adapter{cli: cli, clone: shallowClone}, nil
}

func shallowClone(ctx context.Context, dir, repoURL string) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:   repoURL,
		Depth: 1,
	})
	return err
}

// BuildImage clones repoURL and builds the Dockerfile at its root into an
// image tagged imageName.
func (a *Adapter) BuildImage(ctx context.Context, repoURL string, imageName string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "shipyard-build-*")
	if err != nil {
		return "", errors.Wrap(err, "failed to create temp dir")
	}
	defer os.RemoveAll(tmpDir)

	log.Infof("cloning %s into %s", repoURL, tmpDir)
	if err := a.clone(ctx, tmpDir, repoURL); err != nil {
		return "", errors.Wrapf(err, "failed to clone %s", repoURL)
	}

	tar, err := archive.TarWithOptions(tmpDir, &archive.TarOptions{
		ExcludePatterns: []string{".git"},
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to create build context")
	}
	defer tar.Close()

	log.Infof("building image %s", imageName)
	resp, err := a.cli.ImageBuild(ctx, tar, types.ImageBuildOptions{
		Tags:       []string{imageName},
		Dockerfile: "Dockerfile",
		Remove:     true,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to build image")
	}
	defer resp.Body.Close()

	// the build runs until the stream ends; step failures arrive in it
	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, io.Discard, 0, false, nil); err != nil {
		return "", errors.Wrapf(err, "failed to build image %s", imageName)
	}
	return imageName, nil
}
