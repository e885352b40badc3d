// Package metrics declares the coordinator's Prometheus instrumentation.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// NodesTotal is the current worker count by lifecycle state.
	NodesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orchestrator_nodes_total",
			Help: "Total number of registered worker nodes by state",
		},
		[]string{"state"},
	)

	// ContainersTotal is the current container count by lifecycle state.
	ContainersTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orchestrator_containers_total",
			Help: "Total number of tracked containers by state",
		},
		[]string{"state"},
	)

	// PlacementScore is, per node, the score the node had the last time the
	// scorer picked it for a deploy; nodes that were evaluated but not picked
	// are not updated.
	PlacementScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orchestrator_placement_score",
			Help: "Most recent placement score computed for a worker",
		},
		[]string{"node_id"},
	)

	// PlacementsTotal counts deploy attempts by outcome.
	PlacementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orchestrator_placements_total",
			Help: "Total number of placement attempts by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(NodesTotal)
	prometheus.MustRegister(ContainersTotal)
	prometheus.MustRegister(PlacementScore)
	prometheus.MustRegister(PlacementsTotal)
}
