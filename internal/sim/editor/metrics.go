package editor

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"voxeledit.ai/internal/protocol"
)

// Metrics is optional; a nil *Metrics records nothing.
type Metrics struct {
	commands      *prometheus.CounterVec
	cmdDuration   *prometheus.HistogramVec
	selectedFaces *prometheus.HistogramVec
	chunks        prometheus.Gauge
	sessions      prometheus.Gauge
	regenChunks   prometheus.Counter
	droppedPushes prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxeledit",
			Name:      "commands_total",
			Help:      "Handled CMD messages.",
		}, []string{"op", "ok"}),
		cmdDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voxeledit",
			Name:      "command_duration_seconds",
			Help:      "Time spent applying a CMD on the editor loop.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"op"}),
		selectedFaces: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voxeledit",
			Name:      "selected_faces",
			Help:      "Faces returned per command.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"op"}),
		chunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxeledit",
			Name:      "chunks",
			Help:      "Chunks in the grid.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxeledit",
			Name:      "sessions",
			Help:      "Connected editor sessions.",
		}),
		regenChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxeledit",
			Name:      "regenerated_chunks_total",
			Help:      "Dirty chunks flushed to the regeneration feed.",
		}),
		droppedPushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxeledit",
			Name:      "dropped_pushes_total",
			Help:      "Outbound messages dropped because a client queue was full.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.commands, m.cmdDuration, m.selectedFaces, m.chunks, m.sessions, m.regenChunks, m.droppedPushes)
	}
	return m
}

func (m *Metrics) observeCommand(res protocol.ResultMsg, d time.Duration) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(res.Op, strconv.FormatBool(res.OK)).Inc()
	m.cmdDuration.WithLabelValues(res.Op).Observe(d.Seconds())
	if res.OK {
		m.selectedFaces.WithLabelValues(res.Op).Observe(float64(len(res.Faces)))
	}
}

func (m *Metrics) setChunks(n int) {
	if m != nil {
		m.chunks.Set(float64(n))
	}
}

func (m *Metrics) setSessions(n int) {
	if m != nil {
		m.sessions.Set(float64(n))
	}
}

func (m *Metrics) regenerated(n int) {
	if m != nil {
		m.regenChunks.Add(float64(n))
	}
}

func (m *Metrics) droppedPush() {
	if m != nil {
		m.droppedPushes.Inc()
	}
}
