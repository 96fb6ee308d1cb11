// Package metrics exposes the ledger engine's ambient observability
// surface for the (out-of-scope) node layer to scrape.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChainHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bazuka",
		Name:      "chain_height",
		Help:      "Current chain height (last applied block number + 1).",
	})

	DifficultyPower = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bazuka",
		Name:      "difficulty_power",
		Help:      "Current PoW difficulty, as leading-zero-bit power.",
	})

	RollbackDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bazuka",
		Name:      "rollback_depth",
		Help:      "Number of chain rollback records currently retained.",
	})

	ContractCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bazuka",
		Name:      "contract_count",
		Help:      "Number of deployed contracts.",
	})

	BlocksApplied = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bazuka",
		Name:      "blocks_applied_total",
		Help:      "Total blocks successfully applied.",
	})

	BlocksRolledBack = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bazuka",
		Name:      "blocks_rolled_back_total",
		Help:      "Total blocks rolled back.",
	})

	TransactionsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bazuka",
		Name:      "transactions_rejected_total",
		Help:      "Rejected transactions by error kind.",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(
		ChainHeight,
		DifficultyPower,
		RollbackDepth,
		ContractCount,
		BlocksApplied,
		BlocksRolledBack,
		TransactionsRejected,
	)
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
