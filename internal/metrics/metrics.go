// Package metrics holds the prometheus collectors shared by the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "animebot_cache_requests_total",
		Help: "Response cache lookups by result (hit, miss, expired).",
	}, []string{"result"})

	CacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "animebot_cache_evictions_total",
		Help: "Entries evicted from the response cache because it was full.",
	})

	UpstreamAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "animebot_upstream_attempts_total",
		Help: "Outbound upstream attempts by upstream and outcome.",
	}, []string{"upstream", "outcome"})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "animebot_circuit_breaker_state",
		Help: "Circuit breaker state per upstream (0 closed, 1 half-open, 2 open).",
	}, []string{"upstream"})

	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "animebot_job_runs_total",
		Help: "Scheduled job runs by job and outcome (ok, error, panic, skipped).",
	}, []string{"job", "outcome"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "animebot_job_duration_seconds",
		Help:    "Duration of scheduled job runs.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"job"})

	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "animebot_messages_sent_total",
		Help: "Messages handed to the messaging surface by outcome.",
	}, []string{"outcome"})

	CommandsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "animebot_commands_total",
		Help: "Chat commands handled by command name.",
	}, []string{"command"})
)
