package segment

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AppendEntryTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_segment_append_entry_total",
			Help: "Total number of entries appended to segment files.",
		},
	)

	AppendEntryBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_segment_append_entry_bytes_total",
			Help: "Total number of entry payload bytes appended to segment files.",
		},
	)

	ReadEntryTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_segment_read_entry_total",
			Help: "Total number of entries read from segment files.",
		},
	)

	ReadEntryBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_segment_read_entry_bytes_total",
			Help: "Total number of entry payload bytes read from segment files.",
		},
	)
)

// RegisterMetrics registers all metrics collectors with the given prometheus registerer.
func RegisterMetrics(registerer prometheus.Registerer) error {
	metrics := []prometheus.Collector{
		AppendEntryTotal,
		AppendEntryBytes,
		ReadEntryTotal,
		ReadEntryBytes,
	}
	for _, metric := range metrics {
		if err := registerer.Register(metric); err != nil {
			return err
		}
	}
	return nil
}
