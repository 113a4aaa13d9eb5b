package metrics

import (
	"sync"

	"github.com/osvaldoandrade/imagegenie/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// BatchSource exposes the most recent batch's counts.
type BatchSource interface {
	LatestStatus() (domain.BatchStatus, bool)
}

type batchCollector struct {
	src       BatchSource
	tasksDesc *prometheus.Desc
	totalDesc *prometheus.Desc
}

func newBatchCollector(src BatchSource) *batchCollector {
	return &batchCollector{
		src: src,
		tasksDesc: prometheus.NewDesc(
			namespace+"_batch_tasks",
			"Tasks of the latest batch by state.",
			[]string{"state"},
			nil,
		),
		totalDesc: prometheus.NewDesc(
			namespace+"_batch_tasks_total",
			"Size of the latest batch.",
			nil,
			nil,
		),
	}
}

func (c *batchCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.tasksDesc
	ch <- c.totalDesc
}

func (c *batchCollector) Collect(ch chan<- prometheus.Metric) {
	if c.src == nil {
		return
	}
	st, ok := c.src.LatestStatus()
	if !ok {
		return
	}
	emitGauge(ch, c.tasksDesc, float64(st.Queued), string(domain.StateQueued))
	emitGauge(ch, c.tasksDesc, float64(st.Running), string(domain.StateRunning))
	emitGauge(ch, c.tasksDesc, float64(st.Completed), string(domain.StateCompleted))
	emitGauge(ch, c.tasksDesc, float64(st.Canceled), string(domain.StateCanceled))
	emitGauge(ch, c.tasksDesc, float64(st.Timeout), string(domain.StateTimeout))
	emitGauge(ch, c.tasksDesc, float64(st.Failed), "failed")
	emitGauge(ch, c.totalDesc, float64(st.Total))
}

func emitGauge(ch chan<- prometheus.Metric, desc *prometheus.Desc, v float64, labelValues ...string) {
	m, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, v, labelValues...)
	if err != nil {
		return
	}
	ch <- m
}

var registerBatchCollectorOnce sync.Once

// RegisterBatchCollector registers src with the default registry once per process.
func RegisterBatchCollector(src BatchSource) {
	registerBatchCollectorOnce.Do(func() {
		prometheus.MustRegister(newBatchCollector(src))
	})
}
