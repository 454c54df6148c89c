package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
)

type Registry struct {
	reg *prometheus.Registry

	JobsTotal    *prometheus.CounterVec
	RowsTotal    *prometheus.CounterVec
	JobDuration  prometheus.Histogram
	QualityScore prometheus.Histogram
	RetriesTotal prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	jobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "import_jobs_total",
		Help: "Import jobs that reached a terminal status.",
	}, []string{"status"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "import_rows_total",
		Help: "Rows seen by the ingestion pipeline by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "import_job_duration_seconds",
		Help:    "Time from submission to terminal status.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	})
	quality := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "import_quality_score",
		Help:    "Data quality score of processed files.",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "import_job_retries_total",
		Help: "Jobs put back on the queue after an infrastructure error.",
	})

	r.MustRegister(jobs, rows, duration, quality, retries,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{
		reg:          r,
		JobsTotal:    jobs,
		RowsTotal:    rows,
		JobDuration:  duration,
		QualityScore: quality,
		RetriesTotal: retries,
	}
}

func (r *Registry) ObserveResult(result domain.ProcessingResult) {
	s := result.ProcessingStats
	r.RowsTotal.WithLabelValues("inserted").Add(float64(s.Inserted))
	r.RowsTotal.WithLabelValues("updated").Add(float64(s.Updated))
	r.RowsTotal.WithLabelValues("skipped").Add(float64(s.Skipped))
	r.RowsTotal.WithLabelValues("invalid").Add(float64(s.InvalidRows))
	r.QualityScore.Observe(result.ValidationSummary.DataQualityScore)
}

// JobFinished counts a job that reached a terminal status. Other statuses
// are ignored.
func (r *Registry) JobFinished(status domain.JobStatus, duration time.Duration) {
	if !status.Terminal() {
		return
	}
	r.JobsTotal.WithLabelValues(string(status)).Inc()
	r.JobDuration.Observe(duration.Seconds())
}

func (r *Registry) JobRetried() { r.RetriesTotal.Inc() }

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
