// Package metrics holds the engine's Prometheus instruments. It imports
// nothing from internal/audio so the engine can record to it directly
// without creating an import cycle with internal/obs, which serves these
// same instruments (via the default registry) alongside reads of the
// engine's state snapshots.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "soundscape_engine_tick_duration_seconds",
		Help:    "Time spent in one engine tick iteration",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.02, 0.05},
	})

	activeAmbientVoices = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "soundscape_active_ambient_voices",
		Help: "Number of currently running ambient voices",
	})

	duckProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "soundscape_duck_progress",
		Help: "Current sidechain ducking progress, 0-1",
	})

	ringDropsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "soundscape_ring_drops_total",
		Help: "Times a sample ring wrapped a full cycle between consumer reads",
	}, []string{"ring"}) // bounded: "music", "ambient"
)

// RecordTick observes one tick's wall-clock duration.
func RecordTick(d time.Duration) {
	tickDuration.Observe(d.Seconds())
}

// SetActiveAmbientVoices sets the ambient-voice-count gauge.
func SetActiveAmbientVoices(n int) {
	activeAmbientVoices.Set(float64(n))
}

// SetDuckProgress sets the duck-progress gauge.
func SetDuckProgress(v float64) {
	duckProgress.Set(v)
}

// AddRingDrops increments the drop counter for the named ring by delta.
func AddRingDrops(ring string, delta uint64) {
	if delta == 0 {
		return
	}
	ringDropsTotal.WithLabelValues(ring).Add(float64(delta))
}
