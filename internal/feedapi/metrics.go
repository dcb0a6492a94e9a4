// SPDX-License-Identifier: AGPL-3.0-only
package feedapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notbadfeed_api_requests_total",
		Help: "Requests sent to the feed API by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notbadfeed_api_request_duration_seconds",
		Help:    "Latency of feed API requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
