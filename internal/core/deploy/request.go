package deploy

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shipyard/dashboard/internal/core/domain"
)

// Form defaults, matching the values the deploy page starts with.
const (
	DefaultCpus   = "0.1"
	DefaultMemory = "256"
	DefaultCount  = "1"
)

// ErrInvalidType is returned by Build for a type outside domain.DeploymentTypes.
var ErrInvalidType = errors.New("invalid deployment type")

// Form is the deploy page as submitted, every field still raw text.
type Form struct {
	Name        string `form:"name"`
	Cpus        string `form:"cpus"`
	Memory      string `form:"memory"`
	Environment string `form:"environment"`
	Hostname    string `form:"hostname"`
	Type        string `form:"type"`
	Label       string `form:"label"`
	Args        string `form:"args"`
	Ports       string `form:"ports"`
	Count       string `form:"count"`
	Repository  string `form:"repository"`
}

// NewForm returns a form holding the page defaults.
func NewForm() Form {
	return Form{
		Cpus:   DefaultCpus,
		Memory: DefaultMemory,
		Type:   domain.TypeService,
		Count:  DefaultCount,
	}
}

// FieldError is a single rejected form field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every rejected field of a Form.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "invalid deployment: " + strings.Join(msgs, "; ")
}

// Has reports whether field was rejected.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) add(field, format string, args ...interface{}) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Validate checks a submitted form before anything is sent. It returns a
// *ValidationError naming each bad field, or nil.
func Validate(f Form) error {
	verr := &ValidationError{}
	if strings.TrimSpace(f.Name) == "" {
		verr.add("name", "image name is required")
	}
	if _, err := parseCpus(f.Cpus); err != nil {
		verr.add("cpus", "%s", err)
	}
	if _, err := parseMemory(f.Memory); err != nil {
		verr.add("memory", "%s", err)
	}
	if !domain.IsDeploymentType(f.Type) {
		verr.add("type", "type must be one of %s", strings.Join(domain.DeploymentTypes, ", "))
	}
	if _, err := ParseEnvironment(f.Environment); err != nil {
		verr.add("environment", "%s", err)
	}
	if _, err := ParsePorts(f.Ports); err != nil {
		verr.add("ports", "%s", err)
	}
	if _, err := ParseCount(f.Count); err != nil {
		verr.add("count", "%s", err)
	}
	return verr.orNil()
}

// Build turns a form into a deployment request. It is a transformation,
// not a validator: callers run Validate first and only call Build on a
// form that passed. Parse failures still surface as *ValidationError so
// they never become zero values, and a type outside the fixed set is
// ErrInvalidType.
//
// An empty label yields no label constraint rather than a single empty one.
func Build(f Form) (*domain.DeploymentRequest, error) {
	if !domain.IsDeploymentType(f.Type) {
		return nil, ErrInvalidType
	}
	verr := &ValidationError{}
	cpus, err := parseCpus(f.Cpus)
	if err != nil {
		verr.add("cpus", "%s", err)
	}
	memory, err := parseMemory(f.Memory)
	if err != nil {
		verr.add("memory", "%s", err)
	}
	env, err := ParseEnvironment(f.Environment)
	if err != nil {
		verr.add("environment", "%s", err)
	}
	ports, err := ParsePorts(f.Ports)
	if err != nil {
		verr.add("ports", "%s", err)
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	labels := []string{}
	if f.Label != "" {
		labels = append(labels, f.Label)
	}

	return &domain.DeploymentRequest{
		Name:        strings.TrimSpace(f.Name),
		Cpus:        cpus,
		Memory:      memory,
		Environment: env,
		Hostname:    f.Hostname,
		Type:        f.Type,
		Args:        TokenizeArgs(f.Args),
		Labels:      labels,
		BindPorts:   ports,
		Publish:     true,
	}, nil
}

// ParseCount reads the number of instances to deploy; empty means one.
func ParseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("count must be a whole number of at least 1")
	}
	return n, nil
}

func parseCpus(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("cpus must be a positive number")
	}
	return v, nil
}

func parseMemory(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("memory must be a positive number of megabytes")
	}
	return v, nil
}
