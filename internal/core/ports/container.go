package ports

import (
	"context"

	"github.com/shipyard/dashboard/internal/core/domain"
	"github.com/shipyard/dashboard/internal/core/session"
)

// Cluster defines the resources the views read and the two writes they
// issue. Implementations are bound to a single session.
type Cluster interface {
	ListContainers(ctx context.Context) ([]domain.Container, error)
	InspectContainer(ctx context.Context, id string) (*domain.Container, error)
	DeployContainer(ctx context.Context, req *domain.DeploymentRequest) (*domain.Container, error)
	DestroyContainer(ctx context.Context, id string) error

	ListEngines(ctx context.Context) ([]domain.Engine, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
	ClusterInfo(ctx context.Context) (*domain.ClusterInfo, error)
}

// Connector authenticates users and hands out session-bound clusters.
// This lets the views run against the Shipyard controller or a single
// local Docker engine without changing.
type Connector interface {
	// Login exchanges credentials for a token. Bad credentials yield
	// ErrUnauthorized.
	Login(ctx context.Context, username, password string) (string, error)
	// Cluster binds s to a Cluster. A session the backend does not
	// recognize yields ErrUnauthorized.
	Cluster(s session.Session) (Cluster, error)
}

// Revoker is implemented by connectors that can invalidate a token on
// logout.
type Revoker interface {
	Revoke(token string)
}
