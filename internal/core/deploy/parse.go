package deploy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shipyard/dashboard/internal/core/domain"
)

// MalformedEnvError reports an environment token that is not NAME=value.
type MalformedEnvError struct {
	Token string
}

func (e *MalformedEnvError) Error() string {
	return fmt.Sprintf("environment variables must be in key=value pairs: %q", e.Token)
}

// MalformedPortError reports a port definition that cannot be parsed.
type MalformedPortError struct {
	Spec   string
	Reason string
}

func (e *MalformedPortError) Error() string {
	return fmt.Sprintf("port definitions must be in <proto>/<host-port>:<container-port> form: %q: %s", e.Spec, e.Reason)
}

// fields is the single splitting rule for every whitespace-delimited form
// field. Runs of whitespace collapse and empty input has no tokens.
func fields(raw string) []string {
	return strings.Fields(raw)
}

// TokenizeArgs splits raw into container arguments.
func TokenizeArgs(raw string) []string {
	args := fields(raw)
	if args == nil {
		return []string{}
	}
	return args
}

// ParseEnvironment turns "A=1 B=2" into a name to value mapping. Each token
// is split on its first '='; later names overwrite earlier ones. A token
// without '=' or with an empty name rejects the whole input.
func ParseEnvironment(raw string) (map[string]string, error) {
	env := make(map[string]string)
	for _, tok := range fields(raw) {
		name, value, ok := strings.Cut(tok, "=")
		if !ok || name == "" {
			return nil, &MalformedEnvError{Token: tok}
		}
		env[name] = value
	}
	return env, nil
}

// ParsePorts reads whitespace-separated <proto>/<host-port>:<container-port>
// definitions, e.g. "tcp/:8080 tcp/80:8080". An empty port means the engine
// chooses it.
func ParsePorts(raw string) ([]domain.Port, error) {
	ports := []domain.Port{}
	for _, spec := range fields(raw) {
		proto, def, ok := strings.Cut(spec, "/")
		if !ok || proto == "" {
			return nil, &MalformedPortError{Spec: spec, Reason: "missing protocol"}
		}
		hostDef, containerDef, ok := strings.Cut(def, ":")
		if !ok {
			return nil, &MalformedPortError{Spec: spec, Reason: "missing ':'"}
		}
		hostPort, err := parsePort(hostDef)
		if err != nil {
			return nil, &MalformedPortError{Spec: spec, Reason: err.Error()}
		}
		containerPort, err := parsePort(containerDef)
		if err != nil {
			return nil, &MalformedPortError{Spec: spec, Reason: err.Error()}
		}
		ports = append(ports, domain.Port{
			Proto:         proto,
			Port:          hostPort,
			ContainerPort: containerPort,
		})
	}
	return ports, nil
}

func parsePort(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("unable to parse port %q", s)
	}
	if p < 0 || p > 65535 {
		return 0, fmt.Errorf("port %d out of range", p)
	}
	return p, nil
}
