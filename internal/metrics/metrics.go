// Package metrics exports engine activity as Prometheus counters.
//
// Each Recorder owns its registry so that several engines, or several
// tests, never collide on registration. The CLI writes the registry to a
// node-exporter textfile at the end of a run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "summa"

// Recorder counts engine events. It satisfies engine.Recorder.
type Recorder struct {
	registry *prometheus.Registry

	events        *prometheus.CounterVec
	matchAttempts prometheus.Counter
	matchFailures prometheus.Counter
	replays       prometheus.Counter
	commits       prometheus.Counter
	bucketFull    prometheus.Counter
	aborts        *prometheus.CounterVec
	faults        *prometheus.CounterVec
}

// New creates a Recorder with all collectors registered on a fresh
// registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "events_total",
			Help:      "Host events delivered to the engine, by event type.",
		}, []string{"event"}),
		matchAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "match_attempts_total",
			Help:      "Summary lookups for methods with at least one summary.",
		}),
		matchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "match_failures_total",
			Help:      "Summary lookups that found no matching summary.",
		}),
		replays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "replays_total",
			Help:      "Calls satisfied from a summary.",
		}),
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "commits_total",
			Help:      "Summaries committed.",
		}),
		bucketFull: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "bucket_full_total",
			Help:      "Completed recordings discarded because the method's bucket was full.",
		}),
		aborts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "aborted_recordings_total",
			Help:      "Recordings abandoned, by reason.",
		}, []string{"reason"}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "faults_total",
			Help:      "Internal-consistency faults, by code.",
		}, []string{"code"}),
	}
	r.registry.MustRegister(
		r.events,
		r.matchAttempts,
		r.matchFailures,
		r.replays,
		r.commits,
		r.bucketFull,
		r.aborts,
		r.faults,
	)
	return r
}

// Registry returns the registry holding the recorder's collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// WriteTextfile writes the current values in the text exposition format,
// atomically replacing path.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

func (r *Recorder) Event(kind string) { r.events.WithLabelValues(kind).Inc() }
func (r *Recorder) MatchAttempted()   { r.matchAttempts.Inc() }
func (r *Recorder) MatchFailed()      { r.matchFailures.Inc() }
func (r *Recorder) Replayed()         { r.replays.Inc() }
func (r *Recorder) Committed()        { r.commits.Inc() }
func (r *Recorder) BucketFull()       { r.bucketFull.Inc() }
func (r *Recorder) Fault(code string) { r.faults.WithLabelValues(code).Inc() }

// Aborted adds the number of recordings abandoned. An abort with nothing
// recording still registers the reason with a zero count.
func (r *Recorder) Aborted(reason string, methods int) {
	r.aborts.WithLabelValues(reason).Add(float64(methods))
}
