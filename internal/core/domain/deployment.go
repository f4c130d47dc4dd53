package domain

// Deployment types accepted by the scheduler.
const (
	TypeService = "service"
	TypeHost    = "host"
	TypeUnique  = "unique"
)

// DeploymentTypes lists the accepted types in the order the form offers them.
var DeploymentTypes = []string{TypeService, TypeHost, TypeUnique}

// IsDeploymentType reports whether t is one of DeploymentTypes.
func IsDeploymentType(t string) bool {
	for _, v := range DeploymentTypes {
		if v == t {
			return true
		}
	}
	return false
}

// DeploymentRequest is the payload that creates a new container.
// It is built once per submission and never stored.
type DeploymentRequest struct {
	Name        string            `json:"name"`
	Cpus        float64           `json:"cpus"`
	Memory      int               `json:"memory"` // MB
	Environment map[string]string `json:"environment"`
	Hostname    string            `json:"hostname"`
	Type        string            `json:"type"`
	Args        []string          `json:"args"`
	Labels      []string          `json:"labels"`
	BindPorts   []Port            `json:"bind_ports"`
	Publish     bool              `json:"publish"`
}
