package statement

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	skippedRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ermay_statement_skipped_records_total",
		Help: "Records left out of a balance because their amount or currency was malformed.",
	}, []string{"reason"})

	statementBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ermay_statement_builds_total",
		Help: "Statements, balance lists and dashboards built.",
	}, []string{"kind"})
)
