package http

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts the user actions that reach the cluster.
type Metrics struct {
	deployments *prometheus.CounterVec
	destroys    *prometheus.CounterVec
	logins      *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		deployments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shipyard_dashboard",
			Name:      "deployments_total",
			Help:      "Container deployments submitted, by result.",
		}, []string{"result"}),
		destroys: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shipyard_dashboard",
			Name:      "destroys_total",
			Help:      "Container destroys submitted, by result.",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shipyard_dashboard",
			Name:      "logins_total",
			Help:      "Login attempts, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.deployments, m.destroys, m.logins)
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
