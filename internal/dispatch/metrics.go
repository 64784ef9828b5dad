package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quizzer_events_total",
		Help: "Engine events delivered, by event name and target audience.",
	}, []string{"event", "target"})

	answersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quizzer_answers_total",
		Help: "Answer submissions, by outcome.",
	}, []string{"result"})

	lifelinesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quizzer_lifelines_total",
		Help: "Lifeline requests, by outcome.",
	}, []string{"result"})

	snapshotFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizzer_snapshot_failures_total",
		Help: "Session snapshot writes that failed.",
	})
)
