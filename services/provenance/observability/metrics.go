// Copyright (C) 2026 Symphainy Platform (aaron@symphainy.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability carries service-level metrics. Operation
// metrics live next to the code they instrument; this package holds
// what describes the process as a whole.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	serviceInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "symphainy",
		Subsystem: "provenance",
		Name:      "service_info",
		Help:      "Constant 1, labeled with service identity",
	}, []string{"service", "version"})

	serviceUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "symphainy",
		Subsystem: "provenance",
		Name:      "service_up",
		Help:      "1 while the service is assembled and serving",
	})

	startTime = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "symphainy",
		Subsystem: "provenance",
		Name:      "service_start_time_seconds",
		Help:      "Unix time the service started",
	})
)

// MarkStarted records service identity and start time. Call once from
// the composition root.
func MarkStarted(service, version string) {
	serviceInfo.WithLabelValues(service, version).Set(1)
	startTime.Set(float64(time.Now().Unix()))
	serviceUp.Set(1)
}

// MarkStopping flips the up gauge during shutdown.
func MarkStopping() {
	serviceUp.Set(0)
}
