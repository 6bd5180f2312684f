// Package metrics 提供公会账本服务的 Prometheus 指标
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "guild_ledger"

// Manager 持有所有指标；nil Manager 上的记录方法均为空操作
type Manager struct {
	registry *prometheus.Registry

	// 工资重算
	recalcDuration      prometheus.Histogram
	recalcTotal         *prometheus.CounterVec
	salariesCreated     prometheus.Gauge
	itemsWithoutPayees  prometheus.Gauge
	lastRecalcTimestamp prometheus.Gauge

	// 出勤与对账
	attendanceRecorded prometheus.Counter
	integrityValid     prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager 在独立 registry 上注册指标
func NewManager() *Manager {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	auto := promauto.With(reg)

	m := &Manager{registry: reg}

	m.recalcDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "salary",
		Name:      "recalculation_duration_seconds",
		Help:      "Duration of full salary recalculations",
		Buckets:   prometheus.DefBuckets,
	})
	m.recalcTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "salary",
		Name:      "recalculations_total",
		Help:      "Salary recalculations by result",
	}, []string{"result"})
	m.salariesCreated = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "salary",
		Name:      "salaries_created",
		Help:      "Salary rows written by the last successful recalculation",
	})
	m.itemsWithoutPayees = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "salary",
		Name:      "items_without_beneficiaries",
		Help:      "SOLD items whose value was not distributed in the last recalculation",
	})
	m.lastRecalcTimestamp = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "salary",
		Name:      "last_recalculation_timestamp_seconds",
		Help:      "Unix time of the last successful recalculation",
	})

	m.attendanceRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "attendance",
		Name:      "recorded_total",
		Help:      "Attendance rows upserted by weekly syncs",
	})
	m.integrityValid = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "integrity",
		Name:      "valid",
		Help:      "1 when the last integrity check balanced, 0 otherwise",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	return m
}

// Registry 暴露底层 registry（测试读取指标用）
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler /metrics 处理器
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRecalculation 记录一次重算
func (m *Manager) ObserveRecalculation(d time.Duration, salaries, itemsWithout int, err error) {
	if m == nil {
		return
	}
	m.recalcDuration.Observe(d.Seconds())
	if err != nil {
		m.recalcTotal.WithLabelValues("error").Inc()
		return
	}
	m.recalcTotal.WithLabelValues("success").Inc()
	m.salariesCreated.Set(float64(salaries))
	m.itemsWithoutPayees.Set(float64(itemsWithout))
	m.lastRecalcTimestamp.SetToCurrentTime()
}

// AddAttendance 累加出勤写入数
func (m *Manager) AddAttendance(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.attendanceRecorded.Add(float64(n))
}

// SetIntegrity 记录对账结果
func (m *Manager) SetIntegrity(valid bool) {
	if m == nil {
		return
	}
	if valid {
		m.integrityValid.Set(1)
	} else {
		m.integrityValid.Set(0)
	}
}

// ObserveHTTP 记录一次 HTTP 请求
func (m *Manager) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
