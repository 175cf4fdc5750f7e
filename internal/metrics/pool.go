package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// poolStat is one pgxpool statistic exported by PoolCollector.
type poolStat struct {
	desc      *prometheus.Desc
	valueType prometheus.ValueType
	value     func(*pgxpool.Stat) float64
}

// PoolCollector implements prometheus.Collector for the page store's
// connection pool. Stats are read on each scrape.
type PoolCollector struct {
	pool  *pgxpool.Pool
	stats []poolStat
}

// NewPoolCollector creates a collector for pool. A nil pool (in-memory
// store) collects nothing.
func NewPoolCollector(pool *pgxpool.Pool) *PoolCollector {
	stat := func(name, help string, vt prometheus.ValueType, v func(*pgxpool.Stat) float64) poolStat {
		return poolStat{
			desc:      prometheus.NewDesc(prometheus.BuildFQName(namespace, "pgxpool", name), help, nil, nil),
			valueType: vt,
			value:     v,
		}
	}

	return &PoolCollector{
		pool: pool,
		stats: []poolStat{
			stat("acquire_count", "Cumulative count of successful connection acquires.", prometheus.CounterValue,
				func(s *pgxpool.Stat) float64 { return float64(s.AcquireCount()) }),
			stat("acquire_duration_seconds", "Cumulative time spent acquiring connections.", prometheus.CounterValue,
				func(s *pgxpool.Stat) float64 { return s.AcquireDuration().Seconds() }),
			stat("canceled_acquire_count", "Cumulative count of acquires canceled by context.", prometheus.CounterValue,
				func(s *pgxpool.Stat) float64 { return float64(s.CanceledAcquireCount()) }),
			stat("empty_acquire_count", "Cumulative count of acquires that waited for a connection.", prometheus.CounterValue,
				func(s *pgxpool.Stat) float64 { return float64(s.EmptyAcquireCount()) }),
			stat("new_conns_count", "Cumulative count of new connections opened.", prometheus.CounterValue,
				func(s *pgxpool.Stat) float64 { return float64(s.NewConnsCount()) }),
			stat("acquired_conns", "Connections currently checked out.", prometheus.GaugeValue,
				func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }),
			stat("idle_conns", "Idle connections in the pool.", prometheus.GaugeValue,
				func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }),
			stat("total_conns", "Total connections in the pool.", prometheus.GaugeValue,
				func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }),
			stat("max_conns", "Maximum pool size.", prometheus.GaugeValue,
				func(s *pgxpool.Stat) float64 { return float64(s.MaxConns()) }),
		},
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, s := range c.stats {
		ch <- s.desc
	}
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	if c.pool == nil {
		return
	}
	stat := c.pool.Stat()
	for _, s := range c.stats {
		ch <- prometheus.MustNewConstMetric(s.desc, s.valueType, s.value(stat))
	}
}
