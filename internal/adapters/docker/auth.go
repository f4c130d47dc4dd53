package docker

import (
	"context"
	"crypto/subtle"
	"sync"

	"github.com/google/uuid"
	"github.com/shipyard/dashboard/internal/core/ports"
	"github.com/shipyard/dashboard/internal/core/session"
)

// Connector implements ports.Connector for the local engine with a single
// configured account. Tokens live in memory and do not survive a restart.
type Connector struct {
	adapter  *Adapter
	username string
	password string

	mu     sync.Mutex
	tokens map[string]string // token -> username
}

func NewConnector(adapter *Adapter, username, password string) *Connector {
	return &Connector{
		adapter:  adapter,
		username: username,
		password: password,
		tokens:   make(map[string]string),
	}
}

func (c *Connector) Login(ctx context.Context, username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.password)) == 1
	if !userOK || !passOK {
		return "", ports.ErrUnauthorized
	}
	token := uuid.NewString()
	c.mu.Lock()
	c.tokens[token] = username
	c.mu.Unlock()
	return token, nil
}

func (c *Connector) Cluster(s session.Session) (ports.Cluster, error) {
	if !s.IsLoggedIn() {
		return nil, ports.ErrUnauthorized
	}
	c.mu.Lock()
	owner, ok := c.tokens[s.Token]
	c.mu.Unlock()
	if !ok || owner != s.Username {
		return nil, ports.ErrUnauthorized
	}
	return c.adapter, nil
}

// Revoke forgets token.
func (c *Connector) Revoke(token string) {
	c.mu.Lock()
	delete(c.tokens, token)
	c.mu.Unlock()
}
