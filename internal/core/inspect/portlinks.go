package inspect

import (
	"net"
	"net/url"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/shipyard/dashboard/internal/core/domain"
)

// DerivePortLinks builds one link per published port, reaching it through
// the scheme and hostname of the engine the container runs on. Order and
// length follow ports.
func DerivePortLinks(ports []domain.Port, engineAddr string) ([]domain.PortLink, error) {
	u, err := url.Parse(engineAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid engine address %q", engineAddr)
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return nil, errors.Errorf("invalid engine address %q: scheme and host required", engineAddr)
	}

	links := make([]domain.PortLink, 0, len(ports))
	for _, p := range ports {
		links = append(links, domain.PortLink{
			Protocol:      p.Proto,
			ContainerPort: p.ContainerPort,
			Link:          u.Scheme + "://" + net.JoinHostPort(u.Hostname(), strconv.Itoa(p.Port)),
		})
	}
	return links, nil
}

// SortByContainerPort returns a copy of links ordered by container port.
func SortByContainerPort(links []domain.PortLink) []domain.PortLink {
	sorted := make([]domain.PortLink, len(links))
	copy(sorted, links)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ContainerPort < sorted[j].ContainerPort
	})
	return sorted
}
