// Package metrics 收集与经济引擎指标
package metrics

import (
	"fmt"
	"time"

	"github.com/MAKORA-ltd/anime-play/pkg/config"
	"github.com/MAKORA-ltd/anime-play/pkg/metrics/sliding"
	"github.com/MAKORA-ltd/anime-play/pkg/metrics/system"
	"github.com/prometheus/client_golang/prometheus"
)

// Config 指标配置
type Config struct {
	Namespace             string               `mapstructure:"namespace" json:"namespace" yaml:"namespace"`
	SystemCollectInterval time.Duration        `mapstructure:"system_collect_interval" json:"system_collect_interval" yaml:"system_collect_interval"`
	SlidingWindow         sliding.WindowConfig `mapstructure:"sliding_window" json:"sliding_window" yaml:"sliding_window"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Namespace:             "animeplay",
		SystemCollectInterval: 5 * time.Second,
		SlidingWindow:         *sliding.DefaultWindowConfig(),
	}
}

// EngineMetrics 引擎指标
type EngineMetrics struct {
	config *Config

	// 业务指标
	HuntTotal     *prometheus.CounterVec // 狩猎请求（按结果：encounter/blocked/empty）
	CaptureTotal  *prometheus.CounterVec // 捕捉结算（按结果：captured/escaped/duplicate/released）
	TradeTotal    *prometheus.CounterVec // 交易状态迁移
	GiftTotal     *prometheus.CounterVec
	DailyTotal    *prometheus.CounterVec
	CoinsGranted  prometheus.Counter
	CatalogAdded  prometheus.Counter
	EventsDropped prometheus.Counter // 事件发布失败（已提交，不回滚）

	// 操作指标
	OperationTotal    *prometheus.CounterVec   // 按操作与错误类型
	OperationDuration *prometheus.HistogramVec // 操作延迟

	// 数据库指标
	DBQueryTotal    *prometheus.CounterVec
	DBQueryDuration *prometheus.HistogramVec

	systemCollector *system.Collector
	slidingWindow   *sliding.Window
}

// New 创建引擎指标
func New(cfg *Config) (*EngineMetrics, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge metrics config: %w", err)
	}

	sysCollector, err := system.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create system collector: %w", err)
	}
	window, err := sliding.NewWindow(&newCfg.SlidingWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to create sliding window: %w", err)
	}

	ns := newCfg.Namespace
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: name, Help: help}, labels)
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: ns, Name: name, Help: help})
	}

	return &EngineMetrics{
		config: newCfg,

		HuntTotal:     counterVec("hunts_total", "狩猎请求总数", "result"),
		CaptureTotal:  counterVec("captures_total", "捕捉结算总数", "outcome"),
		TradeTotal:    counterVec("trade_transitions_total", "交易状态迁移总数", "status"),
		GiftTotal:     counterVec("gifts_total", "赠送总数", "result"),
		DailyTotal:    counterVec("daily_claims_total", "每日签到总数", "result"),
		CoinsGranted:  counter("coins_granted_total", "签到发放金币总数"),
		CatalogAdded:  counter("catalog_characters_added_total", "图鉴新增角色总数"),
		EventsDropped: counter("events_dropped_total", "发布失败的领域事件数"),

		OperationTotal: counterVec("operations_total", "引擎操作总数", "operation", "kind"),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "operation_duration_seconds",
				Help:      "引擎操作延迟（秒）",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
			},
			[]string{"operation"},
		),

		DBQueryTotal: counterVec("db_queries_total", "数据库查询总数", "operation", "result"),
		DBQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "db_query_duration_seconds",
				Help:      "数据库查询延迟（秒）",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"operation"},
		),

		systemCollector: sysCollector,
		slidingWindow:   window,
	}, nil
}

// Register 注册指标到 Prometheus Registry
func (m *EngineMetrics) Register(registerer prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.HuntTotal,
		m.CaptureTotal,
		m.TradeTotal,
		m.GiftTotal,
		m.DailyTotal,
		m.CoinsGranted,
		m.CatalogAdded,
		m.EventsDropped,
		m.OperationTotal,
		m.OperationDuration,
		m.DBQueryTotal,
		m.DBQueryDuration,
	}
	collectors = append(collectors, m.systemCollector.Gauges(m.config.Namespace)...)

	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Start 启动系统指标采集
func (m *EngineMetrics) Start() error {
	m.systemCollector.Start(m.config.SystemCollectInterval)
	return nil
}

// Stop 停止后台采集
func (m *EngineMetrics) Stop() error {
	m.systemCollector.Stop()
	return nil
}

// 以下 Record 方法允许 nil 接收者，未启用指标时调用方无需判空

// RecordOperation 记录一次引擎操作，kind 为错误类型名（成功为 "ok"）
func (m *EngineMetrics) RecordOperation(op, kind string, duration time.Duration) {
	if m == nil {
		return
	}
	m.OperationTotal.WithLabelValues(op, kind).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(duration.Seconds())
	m.slidingWindow.Record(duration.Seconds(), kind != "store_unavailable" && kind != "internal")
}

// RecordDBQuery 记录数据库查询
func (m *EngineMetrics) RecordDBQuery(operation string, success bool, duration float64) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failed"
	}
	m.DBQueryTotal.WithLabelValues(operation, result).Inc()
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// RecordHunt 狩猎请求结果
func (m *EngineMetrics) RecordHunt(result string) {
	if m != nil {
		m.HuntTotal.WithLabelValues(result).Inc()
	}
}

// RecordCapture 捕捉结算结果
func (m *EngineMetrics) RecordCapture(outcome string) {
	if m != nil {
		m.CaptureTotal.WithLabelValues(outcome).Inc()
	}
}

// RecordTrade 交易状态迁移
func (m *EngineMetrics) RecordTrade(status string) {
	if m != nil {
		m.TradeTotal.WithLabelValues(status).Inc()
	}
}

// RecordGift 赠送结果
func (m *EngineMetrics) RecordGift(result string) {
	if m != nil {
		m.GiftTotal.WithLabelValues(result).Inc()
	}
}

// RecordDaily 签到结果，coins 为发放数量
func (m *EngineMetrics) RecordDaily(result string, coins int64) {
	if m == nil {
		return
	}
	m.DailyTotal.WithLabelValues(result).Inc()
	if coins > 0 {
		m.CoinsGranted.Add(float64(coins))
	}
}

// RecordCatalogAdd 图鉴新增
func (m *EngineMetrics) RecordCatalogAdd() {
	if m != nil {
		m.CatalogAdded.Inc()
	}
}

// RecordEventDropped 事件发布失败
func (m *EngineMetrics) RecordEventDropped() {
	if m != nil {
		m.EventsDropped.Inc()
	}
}

// Stats 运行状态快照
type Stats struct {
	QPS           float64 `json:"qps"`
	AvgLatency    float64 `json:"avg_latency"`
	MaxLatency    float64 `json:"max_latency"`
	SuccessRate   float64 `json:"success_rate"`
	TotalOps      int64   `json:"total_ops"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryBytes   uint64  `json:"memory_bytes"`
	Goroutines    int     `json:"goroutines"`
}

// GetStats 滑动窗口与进程资源的汇总，供状态接口使用
func (m *EngineMetrics) GetStats() Stats {
	w := m.slidingWindow.GetStats()
	s := m.systemCollector.GetStats()
	return Stats{
		QPS:           w.QPS,
		AvgLatency:    w.AvgLatency,
		MaxLatency:    w.MaxLatency,
		SuccessRate:   w.SuccessRate,
		TotalOps:      w.TotalCount,
		CPUPercent:    s.CPUPercent,
		MemoryPercent: s.MemoryPercent,
		MemoryBytes:   s.MemoryBytes,
		Goroutines:    s.Goroutines,
	}
}
