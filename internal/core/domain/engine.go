package domain

import "time"

// Engine is a compute host in the cluster.
type Engine struct {
	ID     string   `json:"id"`
	Addr   string   `json:"addr"`
	Cpus   float64  `json:"cpus"`
	Memory float64  `json:"memory"`
	Labels []string `json:"labels"`
}

// ClusterInfo summarizes capacity and reservations across all engines.
type ClusterInfo struct {
	Cpus           float64 `json:"cpus"`
	Memory         float64 `json:"memory"`
	ContainerCount int     `json:"container_count"`
	EngineCount    int     `json:"engine_count"`
	ImageCount     int     `json:"image_count"`
	ReservedCpus   float64 `json:"reserved_cpus"`
	ReservedMemory float64 `json:"reserved_memory"`
	Version        string  `json:"version"`
}

// Event is a cluster event as recorded by the controller.
type Event struct {
	Type        string    `json:"type"`
	Time        time.Time `json:"time"`
	Message     string    `json:"message"`
	Tags        []string  `json:"tags"`
	ContainerID string    `json:"container_id,omitempty"`
	EngineID    string    `json:"engine_id,omitempty"`
}
