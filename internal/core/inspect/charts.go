package inspect

import "github.com/shipyard/dashboard/internal/core/domain"

// Slice is one segment of a pie chart.
type Slice struct {
	Key string  `json:"key"`
	Y   float64 `json:"y"`
}

// Series is a keyed list of [x, y] points for a bar chart.
type Series struct {
	Key    string       `json:"key"`
	Values [][2]float64 `json:"values"`
}

// Percent returns the share of s in the whole pie, in [0, 100].
func Percent(s Slice, pie []Slice) float64 {
	var total float64
	for _, p := range pie {
		total += p.Y
	}
	if total <= 0 {
		return 0
	}
	return s.Y / total * 100
}

// ClusterCharts splits cluster capacity into free and reserved shares.
func ClusterCharts(info domain.ClusterInfo) (cpu, memory []Slice) {
	cpu = []Slice{
		{Key: "Free", Y: info.Cpus - info.ReservedCpus},
		{Key: "Reserved", Y: info.ReservedCpus},
	}
	memory = []Slice{
		{Key: "Free", Y: info.Memory - info.ReservedMemory},
		{Key: "Reserved", Y: info.ReservedMemory},
	}
	return cpu, memory
}

// ContainerCharts holds the reservation bars of a container against the
// capacity of its engine.
type ContainerCharts struct {
	Cpu       []Series
	Memory    []Series
	CpuMax    float64
	MemoryMax float64
}

// NewContainerCharts derives the detail view bars for c. A container
// without an engine gets zero maxima.
func NewContainerCharts(c domain.Container) ContainerCharts {
	charts := ContainerCharts{
		Cpu: []Series{{
			Key:    "CPU",
			Values: [][2]float64{{c.Image.Cpus, c.Image.Cpus}},
		}},
		Memory: []Series{{
			Key:    "Memory",
			Values: [][2]float64{{c.Image.Memory, c.Image.Memory}},
		}},
	}
	if c.Engine != nil {
		charts.CpuMax = c.Engine.Cpus
		charts.MemoryMax = c.Engine.Memory
	}
	return charts
}

// Usage returns the percentage of max used by the first point of series.
func Usage(series []Series, max float64) float64 {
	if len(series) == 0 || len(series[0].Values) == 0 || max <= 0 {
		return 0
	}
	pct := series[0].Values[0][1] / max * 100
	if pct > 100 {
		return 100
	}
	return pct
}
