package monitor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics publishes the latest container readings for scraping
type Metrics struct {
	registry *prometheus.Registry

	cpu      *prometheus.GaugeVec
	memory   *prometheus.GaugeVec
	netIn    *prometheus.GaugeVec
	netOut   *prometheus.GaugeVec
	captures *prometheus.CounterVec
	running  prometheus.Gauge
	duration prometheus.Gauge
}

// NewMetrics creates the collectors on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cpu: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bankbench_container_cpu_percent",
			Help: "Last sampled CPU usage per container",
		}, []string{"container"}),
		memory: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bankbench_container_memory_mib",
			Help: "Last sampled memory usage per container in MiB",
		}, []string{"container"}),
		netIn: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bankbench_container_net_in_kb",
			Help: "Cumulative network input per container in kB",
		}, []string{"container"}),
		netOut: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bankbench_container_net_out_kb",
			Help: "Cumulative network output per container in kB",
		}, []string{"container"}),
		captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bankbench_captures_total",
			Help: "Finished captures by result",
		}, []string{"result"}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bankbench_capture_running",
			Help: "1 while a capture is in progress",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bankbench_capture_duration_seconds",
			Help: "Duration of the last finished capture",
		}),
	}
	m.registry.MustRegister(m.cpu, m.memory, m.netIn, m.netOut, m.captures, m.running, m.duration)
	return m
}

// Observe records the readings of one snapshot
func (m *Metrics) Observe(samples []Sample) {
	for _, s := range samples {
		m.cpu.WithLabelValues(s.Container).Set(s.CPU)
		m.memory.WithLabelValues(s.Container).Set(s.MemoryMiB)
		m.netIn.WithLabelValues(s.Container).Set(s.NetInKB)
		m.netOut.WithLabelValues(s.Container).Set(s.NetOutKB)
	}
}

// CaptureStarted marks a capture as running
func (m *Metrics) CaptureStarted() {
	m.running.Set(1)
}

// CaptureFinished records the outcome of a capture
func (m *Metrics) CaptureFinished(err error, d time.Duration) {
	m.running.Set(0)
	m.duration.Set(d.Seconds())
	if err != nil {
		m.captures.WithLabelValues("error").Inc()
		return
	}
	m.captures.WithLabelValues("ok").Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
