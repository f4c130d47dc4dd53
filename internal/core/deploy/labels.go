package deploy

import "github.com/shipyard/dashboard/internal/core/domain"

// AggregateLabels returns every label carried by engines, in the order
// first seen, without duplicates.
func AggregateLabels(engines []domain.Engine) []string {
	labels := []string{}
	seen := make(map[string]struct{})
	for _, e := range engines {
		for _, l := range e.Labels {
			if _, ok := seen[l]; ok {
				continue
			}
			seen[l] = struct{}{}
			labels = append(labels, l)
		}
	}
	return labels
}
