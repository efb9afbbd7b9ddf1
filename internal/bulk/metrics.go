package bulk

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

var PendingParts = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "vstutils_bulk_pending_parts",
	Help: "The number of logical requests waiting for their transaction",
})

var Transactions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vstutils_bulk_transactions_total",
	Help: "The total number of physical transactions sent",
}, []string{"result"})

var TransactionParts = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "vstutils_bulk_transaction_parts",
	Help:    "The count of logical requests per transaction",
	Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
})

var TransactionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "vstutils_bulk_transaction_duration_seconds",
	Help:    "The duration of physical transactions",
	Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
})

var PartStatus = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vstutils_bulk_part_status_total",
	Help: "The number of logical responses by status code",
}, []string{"status"})

// SystemStats contains the metrics and system stats
type SystemStats struct {
	Metrics struct {
		PendingParts        float64 `json:"pendingParts"`
		Transactions        float64 `json:"transactions"`
		TransactionParts    float64 `json:"transactionParts"`
		TransactionDuration float64 `json:"transactionDuration"`
		Responses           float64 `json:"responses"`
	} `json:"metrics"`
	Memory *mem.VirtualMemoryStat `json:"memory"`
	Load   *load.AvgStat          `json:"load"`
}

// collect calls the function for each metric associated with the Collector
func collect(col prometheus.Collector, do func(*dto.Metric)) {
	c := make(chan prometheus.Metric)
	go func(c chan prometheus.Metric) {
		col.Collect(c)
		close(c)
	}(c)
	for x := range c { // eg range across distinct label vector values
		m := dto.Metric{}
		_ = x.Write(&m)
		do(&m)
	}
}

// getMetricValue returns the sum of the Counter or Gauge metrics associated with the Collector.
// If the metric is a Histogram then the sample sum is used.
func getMetricValue(col prometheus.Collector) float64 {
	var total float64
	collect(col, func(m *dto.Metric) {
		switch {
		case m.GetHistogram() != nil:
			total += m.GetHistogram().GetSampleSum()
		case m.GetGauge() != nil:
			total += m.GetGauge().GetValue()
		default:
			total += m.GetCounter().GetValue()
		}
	})
	return total
}

// GetSystemStats returns a snapshot of the bulk metrics and system stats
func GetSystemStats() (*SystemStats, error) {
	var s SystemStats
	var err error
	s.Metrics.PendingParts = getMetricValue(PendingParts)
	s.Metrics.Transactions = getMetricValue(Transactions)
	s.Metrics.TransactionParts = getMetricValue(TransactionParts)
	s.Metrics.TransactionDuration = getMetricValue(TransactionDuration)
	s.Metrics.Responses = getMetricValue(PartStatus)
	s.Memory, err = mem.VirtualMemory()
	if err != nil {
		return nil, err
	}
	s.Load, err = load.Avg()
	return &s, err
}
