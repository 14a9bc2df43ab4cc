package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loansBorrowed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "librarydesk",
		Name:      "loans_borrowed_total",
		Help:      "Number of loans opened.",
	})
	loansReturned = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "librarydesk",
		Name:      "loans_returned_total",
		Help:      "Number of loans closed, split by whether they were late.",
	}, []string{"late"})
	lateFeesCharged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "librarydesk",
		Name:      "late_fees_charged_total",
		Help:      "Sum of late fees charged at return.",
	})
	loanRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "librarydesk",
		Name:      "loan_rejections_total",
		Help:      "Borrow and return attempts rejected by a business rule.",
	}, []string{"reason"})
)
