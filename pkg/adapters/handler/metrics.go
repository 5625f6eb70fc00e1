package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	linksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "labelshare_links_created_total",
		Help: "Share links created.",
	})

	downloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labelshare_downloads_total",
		Help: "Download attempts on public links, by outcome.",
	}, []string{"outcome"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labelshare_http_requests_total",
		Help: "HTTP requests served, by method and status.",
	}, []string{"method", "status"})
)
