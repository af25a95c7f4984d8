// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

// Package metrics exposes live measurements as Prometheus gauges so a
// long-running monitor can be scraped while an operation runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/wirenboard/zke-ebc-axx/pkg/ebc"
)

// Exporter is a measurement sink backed by its own Prometheus registry.
type Exporter struct {
	log      logrus.FieldLogger
	registry *prometheus.Registry

	voltage      prometheus.Gauge
	current      prometheus.Gauge
	storedCharge prometheus.Gauge
	setting      prometheus.Gauge
	cutoff       prometheus.Gauge
	working      prometheus.Gauge

	samples          prometheus.Counter
	checksumWarnings prometheus.Counter
}

// NewExporter builds and registers the full metric set.
func NewExporter(log logrus.FieldLogger) *Exporter {
	e := &Exporter{
		log:      log,
		registry: prometheus.NewRegistry(),

		voltage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ebc_voltage_volts",
			Help: "Measured battery voltage",
		}),
		current: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ebc_current_amperes",
			Help: "Measured current",
		}),
		storedCharge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ebc_stored_charge",
			Help: "Charge counter as reported by the device",
		}),
		setting: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ebc_setting_amperes",
			Help: "Commanded current setting",
		}),
		cutoff: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ebc_cutoff_volts",
			Help: "Configured cutoff voltage",
		}),
		working: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ebc_working",
			Help: "1 while the device reports WORKING, 0 otherwise",
		}),

		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ebc_samples_total",
			Help: "Decoded measurement frames",
		}),
		checksumWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ebc_checksum_warnings_total",
			Help: "Frames with a checksum mismatch",
		}),
	}

	e.registry.MustRegister(
		e.voltage,
		e.current,
		e.storedCharge,
		e.setting,
		e.cutoff,
		e.working,
		e.samples,
		e.checksumWarnings,
	)
	return e
}

// Write implements ebc.Sink.
func (e *Exporter) Write(m *ebc.Measurement) error {
	e.voltage.Set(m.VoltageV)
	e.current.Set(m.CurrentA)
	e.storedCharge.Set(float64(m.StoredCharge))
	e.setting.Set(m.SettingA)
	e.cutoff.Set(m.CutoffV)
	if m.State == ebc.StateWorking {
		e.working.Set(1)
	} else {
		e.working.Set(0)
	}
	e.samples.Inc()
	if !m.ChecksumOK {
		e.checksumWarnings.Inc()
	}
	return nil
}

// Registry exposes the underlying registry, mainly for tests.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler returns the scrape handler plus a trivial health endpoint.
func (e *Exporter) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// Serve starts the scrape endpoint in the background. Errors are logged,
// not fatal: losing metrics must not interrupt a running charge.
func (e *Exporter) Serve(addr string) {
	e.log.Infof("serving metrics on %s", addr)
	go func() {
		if err := http.ListenAndServe(addr, e.Handler()); err != nil {
			e.log.WithError(err).Error("metrics server failed")
		}
	}()
}
