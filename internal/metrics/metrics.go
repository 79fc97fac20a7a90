package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qabot_commands_total",
			Help: "Total slash commands handled",
		},
		[]string{"command", "status"},
	)

	CommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qabot_command_duration_seconds",
			Help:    "End-to-end command handling duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"command"},
	)

	RetrievalTierHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qabot_retrieval_tier_hits_total",
			Help: "Retrievals won by each search tier",
		},
		[]string{"tier"},
	)

	RetrievalResultsCount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qabot_retrieval_results_count",
			Help:    "Number of chunks returned per retrieval",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		},
	)

	CompletionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qabot_completion_duration_seconds",
			Help:    "Completion API call duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30},
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qabot_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qabot_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	HistoryDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qabot_history_dropped_total",
			Help: "History records dropped due to queue overflow",
		},
	)
)

func Init() {
	prometheus.MustRegister(CommandsTotal)
	prometheus.MustRegister(CommandDuration)
	prometheus.MustRegister(RetrievalTierHits)
	prometheus.MustRegister(RetrievalResultsCount)
	prometheus.MustRegister(CompletionDuration)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(HistoryDropped)
}

func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
