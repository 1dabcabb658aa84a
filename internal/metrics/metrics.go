// Package metrics exposes the scanner's Prometheus instrumentation and
// the HTTP handler that serves it.
package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meridianscan/meridian/internal/regime"
)

// Registry holds every scanner metric on a dedicated Prometheus
// registry so tests can build isolated instances.
type Registry struct {
	reg *prometheus.Registry

	ScanDuration     prometheus.Histogram
	SymbolsScanned   prometheus.Gauge
	SymbolsSkipped   prometheus.Counter
	AlertsEmitted    *prometheus.CounterVec
	AlertsSuppressed prometheus.Counter
	ActiveRegime     *prometheus.GaugeVec
	ScansTotal       prometheus.Counter
}

// NewRegistry builds and registers all scanner metrics.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "meridian_scan_duration_seconds",
			Help:    "Duration of a full universe scan in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		SymbolsScanned: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "meridian_symbols_scanned",
			Help: "Symbols successfully scored in the last scan",
		}),
		SymbolsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meridian_symbols_skipped_total",
			Help: "Symbols skipped because data fetch or scoring failed",
		}),
		AlertsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meridian_alerts_emitted_total",
			Help: "Alerts emitted after state filtering, by reason",
		}, []string{"reason"}),
		AlertsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meridian_alerts_suppressed_total",
			Help: "Alert candidates suppressed by cooldown or delta filters",
		}),
		ActiveRegime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "meridian_active_regime",
			Help: "Current market regime, 1 for the active label",
		}, []string{"regime"}),
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meridian_scans_total",
			Help: "Completed scans since process start",
		}),
	}

	reg.MustRegister(
		r.ScanDuration,
		r.SymbolsScanned,
		r.SymbolsSkipped,
		r.AlertsEmitted,
		r.AlertsSuppressed,
		r.ActiveRegime,
		r.ScansTotal,
	)
	return r
}

// SetRegime flips the active-regime gauge so exactly one label is 1.
func (r *Registry) SetRegime(current string) {
	for _, label := range []string{regime.Bull, regime.Bear, regime.Sideways, regime.Unknown} {
		value := 0.0
		if label == current {
			value = 1.0
		}
		r.ActiveRegime.WithLabelValues(label).Set(value)
	}
}

// Handler returns the HTTP mux serving /metrics and /healthz.
func (r *Registry) Handler() http.Handler {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}))
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return router
}
