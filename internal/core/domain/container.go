package domain

// Container represents a container scheduled on one of the cluster engines.
type Container struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	State  string  `json:"state"` // running, stopped, etc.
	Engine *Engine `json:"engine"`
	Image  Image   `json:"image"`
	Ports  []Port  `json:"ports"`
}

// Image describes what a container was started from and the resources
// reserved for it.
type Image struct {
	Name        string            `json:"name"`
	Cpus        float64           `json:"cpus"`
	Memory      float64           `json:"memory"`
	Environment map[string]string `json:"environment"`
	Hostname    string            `json:"hostname"`
	Type        string            `json:"type"`
	Labels      []string          `json:"labels"`
	Args        []string          `json:"args"`
}

// Port is a published container port. Port is the host side.
type Port struct {
	Proto         string `json:"proto"`
	Port          int    `json:"port"`
	ContainerPort int    `json:"container_port"`
}

// PortLink is a URL reaching a published port through its engine's address.
type PortLink struct {
	Protocol      string `json:"protocol"`
	ContainerPort int    `json:"container_port"`
	Link          string `json:"link"`
}
